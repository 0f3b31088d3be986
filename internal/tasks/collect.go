package tasks

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/starford/iotodash/internal/models"
)

const collectConcurrency = 8

// Reader reads document content, served from cache when it is fresh.
type Reader interface {
	CachedRead(ctx context.Context, path string) (string, error)
}

// Collect extracts the given sections from every document. Documents without
// headings or task items are skipped without reading them. Read failures are
// logged and contribute no records; the result keeps the order of docs.
func Collect(ctx context.Context, r Reader, docs []*models.Document, sections []Section, logger *slog.Logger) ([]models.TaskRecord, error) {
	perDoc := make([][]models.TaskRecord, len(docs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(collectConcurrency)
	for i, doc := range docs {
		if !HasTasks(doc) {
			continue
		}
		g.Go(func() error {
			content, err := r.CachedRead(gCtx, doc.Path)
			if err != nil {
				if ctxErr := gCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("tasks: read failed",
					slog.String("path", doc.Path),
					slog.String("error", err.Error()))
				return nil
			}
			perDoc[i] = ExtractSections(doc, SplitLines(content), sections)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []models.TaskRecord
	for _, recs := range perDoc {
		out = append(out, recs...)
	}
	return out, nil
}
