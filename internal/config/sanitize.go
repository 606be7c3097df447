package config

import "strings"

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for displaying configuration without exposing secrets.
func Sanitize(cfg *ClientConfig) *ClientConfig {
	sanitized := *cfg

	if sanitized.Storage.EncryptionKey != "" {
		sanitized.Storage.EncryptionKey = maskSecret(sanitized.Storage.EncryptionKey)
	}
	if sanitized.Storage.Redis.Password != "" {
		sanitized.Storage.Redis.Password = maskSecret(sanitized.Storage.Redis.Password)
	}

	if len(cfg.API.Headers) > 0 {
		headers := make(map[string]string, len(cfg.API.Headers))
		for k, v := range cfg.API.Headers {
			if isSecretHeader(k) {
				v = maskSecret(v)
			}
			headers[k] = v
		}
		sanitized.API.Headers = headers
	}

	return &sanitized
}

func isSecretHeader(name string) bool {
	name = strings.ToLower(name)
	return name == "authorization" || strings.Contains(name, "key") || strings.Contains(name, "token")
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
