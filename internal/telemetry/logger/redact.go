package logger

import (
	"log/slog"
	"strings"
)

// bearerPrefix marks an Authorization header value.
const bearerPrefix = "Bearer "

// jwtPrefix is the base64url encoding of `{"`, the start of every JWT header.
const jwtPrefix = "eyJ"

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"authorization",
	"bearer",
	"encryption_key",
}

// Keys that contain a sensitive pattern but only ever hold metadata.
var safeKeys = map[string]bool{
	"token_duration":   true,
	"token_expires":    true,
	"token_rotated":    true,
	"token_store":      true,
	"has_token":        true,
	"token_generation": true,
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()

		// Value shape wins over key name
		if IsSensitiveValue(strVal) {
			return slog.String(a.Key, RedactString(strVal))
		}

		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	// Handle nested groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// maskValue keeps the first and last 3 characters of value.
func maskValue(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:3] + "..." + value[len(value)-3:]
}

// RedactString manually redacts a string value.
// Bearer header values keep their scheme; JWTs keep a short hint.
func RedactString(value string) string {
	if strings.HasPrefix(value, bearerPrefix) {
		return bearerPrefix + "***"
	}
	if strings.HasPrefix(value, jwtPrefix) && strings.Count(value, ".") == 2 {
		return maskValue(value)
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	if safeKeys[keyLower] {
		return false
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue checks if a value appears to be a credential.
func IsSensitiveValue(value string) bool {
	if strings.HasPrefix(value, bearerPrefix) {
		return true
	}
	return strings.HasPrefix(value, jwtPrefix) && strings.Count(value, ".") == 2
}
