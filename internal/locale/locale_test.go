package locale

import "testing"

func TestT(t *testing.T) {
	cases := []struct {
		lang, key, want string
	}{
		{"en", InputHeading, "Input (LEARN)"},
		{"zh-TW", OutcomeHeading, "成果 DO"},
		{"zh-cn", OutputHeading, "输出 THINK"},
		{"fr", GroupNone, "No group"},
		{"en", "missing", "missing"},
	}
	for _, c := range cases {
		if got := T(c.lang, c.key); got != c.want {
			t.Errorf("T(%q, %q) = %q, want %q", c.lang, c.key, got, c.want)
		}
	}
}
