// Package logging builds the zerolog logger and redacts account names in log fields.
package logging

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a JSON logger writing to w at the given level. Unknown levels fall back to info.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// MaskEmail keeps the first and last character of each label, e.g. "j**n@g***l.c*m".
func MaskEmail(s string) string {
	s = strings.TrimSpace(s)
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return s
	}

	labels := strings.Split(s[at+1:], ".")
	for i, l := range labels {
		labels[i] = maskPart(l)
	}

	return maskPart(s[:at]) + "@" + strings.Join(labels, ".")
}

func maskPart(part string) string {
	if len(part) <= 1 {
		return "*"
	}

	return part[:1] + strings.Repeat("*", max(0, len(part)-2)) + part[len(part)-1:]
}
