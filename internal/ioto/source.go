// Package ioto reads section heading labels from the IOTO plugin settings
// file, falling back to localized defaults.
package ioto

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/starford/iotodash/internal/locale"
	"github.com/starford/iotodash/internal/models"
	"github.com/starford/iotodash/internal/tasks"
)

type pluginSettings struct {
	InputHeading   string `json:"LTDListInputSectionHeading"`
	OutputHeading  string `json:"LTDListOutputSectionHeading"`
	OutcomeHeading string `json:"LTDListOutcomeSectionHeading"`
}

// Source resolves heading labels. The settings file is re-read whenever its
// modification time changes.
type Source struct {
	path   string
	lang   string
	logger *slog.Logger

	mu      sync.Mutex
	modTime time.Time
	cached  pluginSettings
}

// NewSource creates a Source reading path (may be empty) with defaults in lang.
func NewSource(path, lang string, logger *slog.Logger) *Source {
	return &Source{path: path, lang: lang, logger: logger}
}

// Heading returns the heading label for a section category.
func (s *Source) Heading(c models.Category) string {
	ps := s.load()
	switch c {
	case models.CategoryInput:
		return pick(ps.InputHeading, locale.T(s.lang, locale.InputHeading))
	case models.CategoryOutput:
		return pick(ps.OutputHeading, locale.T(s.lang, locale.OutputHeading))
	case models.CategoryOutcome:
		return pick(ps.OutcomeHeading, locale.T(s.lang, locale.OutcomeHeading))
	case models.CategoryNone, models.CategoryNotes, models.CategoryTasks:
		return ""
	default:
		return ""
	}
}

// Sections returns the Input, Output and Outcome sections with their labels.
func (s *Source) Sections() []tasks.Section {
	out := make([]tasks.Section, 0, len(models.Sections))
	for _, c := range models.Sections {
		out = append(out, tasks.Section{Category: c, Heading: s.Heading(c)})
	}
	return out
}

// Language returns the fallback language.
func (s *Source) Language() string {
	return s.lang
}

func (s *Source) load() pluginSettings {
	if s.path == "" {
		return pluginSettings{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		s.cached, s.modTime = pluginSettings{}, time.Time{}
		return s.cached
	}
	if info.ModTime().Equal(s.modTime) {
		return s.cached
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("ioto: read settings failed", slog.String("path", s.path), slog.String("error", err.Error()))
		return s.cached
	}
	var ps pluginSettings
	if err := json.Unmarshal(data, &ps); err != nil {
		s.logger.Warn("ioto: parse settings failed", slog.String("path", s.path), slog.String("error", err.Error()))
		return s.cached
	}
	s.cached, s.modTime = ps, info.ModTime()
	return s.cached
}

func pick(override, fallback string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	return fallback
}
