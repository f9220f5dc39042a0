package logging

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// MaxValueLen is the longest string value written as-is.
const MaxValueLen = 2048

const redacted = "[REDACTED]"

var sensitiveKeys = []string{
	"apikey", "api_key", "api-key",
	"authorization", "password", "secret", "credential",
	"access_token", "session_token", "refresh_token",
}

var (
	queryKeyPattern = regexp.MustCompile(`([?&](?:key|api_key|apikey|access_token)=)[^&\s"']+`)
	bearerPattern   = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/=-]+`)
	googleKey       = regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`)
	openAIKey       = regexp.MustCompile(`sk-[A-Za-z0-9_-]{16,}`)
	dataURLPattern  = regexp.MustCompile(`data:([\w.+-]+/[\w.+-]+);base64,[A-Za-z0-9+/=]+`)
)

// Redact is a slog ReplaceAttr func. Attributes whose key names a credential
// are masked; every other string value goes through Scrub.
func Redact(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		return a
	}

	if isSensitiveKey(a.Key) {
		if a.Value.String() == "" {
			return a
		}
		return slog.String(a.Key, redacted)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, Scrub(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, Scrub(err.Error()))
		}
		if s, ok := a.Value.Any().(fmt.Stringer); ok {
			return slog.String(a.Key, Scrub(s.String()))
		}
	}
	return a
}

// Scrub removes credentials and inline image payloads from s and truncates
// it to MaxValueLen.
func Scrub(s string) string {
	s = queryKeyPattern.ReplaceAllString(s, "${1}"+redacted)
	s = bearerPattern.ReplaceAllString(s, "${1}"+redacted)
	s = googleKey.ReplaceAllString(s, redacted)
	s = openAIKey.ReplaceAllString(s, redacted)
	s = dataURLPattern.ReplaceAllStringFunc(s, func(m string) string {
		meta, payload, _ := strings.Cut(m, ",")
		return fmt.Sprintf("%s,<%d base64 chars>", meta, len(payload))
	})

	if len(s) > MaxValueLen {
		s = fmt.Sprintf("%s...(%d bytes truncated)", s[:MaxValueLen], len(s)-MaxValueLen)
	}
	return s
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if k == "key" || k == "token" {
		return true
	}
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
