package config

import "strings"

// MaskSecret masks a secret, keeping only the first and last 4 characters.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	// Below 12 characters the visible prefix and suffix would reveal most
	// or all of the secret, so mask it entirely.
	if len(secret) < 12 {
		return "***"
	}

	prefix := secret[:4]
	suffix := secret[len(secret)-4:]
	masked := strings.Repeat("*", len(secret)-8)

	return prefix + masked + suffix
}

// MaskTelegramToken masks a bot token, keeping the bot ID visible for diagnostics.
func MaskTelegramToken(token string) string {
	if token == "" {
		return ""
	}

	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return MaskSecret(token)
	}

	return parts[0] + ":" + MaskSecret(parts[1])
}
