package logger

import (
	"log/slog"
	"net/url"
	"strings"
)

// Key fragments that mark an attribute as a credential.
var sensitiveKeyPatterns = []string{
	"password",
	"passwd",
	"requirepass",
	"secret",
	"auth",
	"credential",
}

const redactedValue = "***REDACTED***"

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if s != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if r := RedactString(s); r != s {
			return slog.String(a.Key, r)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// RedactString masks credentials embedded in a free-form value: the
// arguments of an AUTH command line and the password of a redis:// URL.
func RedactString(value string) string {
	if verb, _, ok := strings.Cut(value, " "); ok && strings.EqualFold(verb, "auth") {
		return verb + " " + redactedValue
	}
	if strings.Contains(value, "://") && strings.Contains(value, "@") {
		if u, err := url.Parse(value); err == nil && u.User != nil {
			if _, has := u.User.Password(); has {
				u.User = url.UserPassword(u.User.Username(), "xxxxx")
				return u.String()
			}
		}
	}
	return value
}

// RedactArgs returns a copy of a command argument list that is safe to
// log. The arguments of AUTH are replaced.
func RedactArgs(name string, args []any) []any {
	if !strings.EqualFold(name, "auth") {
		return args
	}
	out := make([]any, len(args))
	for i := range out {
		out[i] = redactedValue
	}
	return out
}

// IsSensitiveKey reports whether a key name suggests a credential.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(k, pattern) {
			return true
		}
	}
	return false
}
