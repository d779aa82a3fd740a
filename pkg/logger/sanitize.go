package logger

import "strings"

// clientIDVisibleChars is how much of a client identifier survives masking
const clientIDVisibleChars = 8

// MaskClientID keeps the first few characters of a client identifier for
// correlation (e.g., "203.0.11***")
func MaskClientID(clientID string) string {
	if len(clientID) > clientIDVisibleChars {
		clientID = clientID[:clientIDVisibleChars]
	}
	return clientID + "***"
}

// SanitizeQueryString checks if query string contains sensitive parameters
// and returns true if the entire query string should be redacted
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := []string{
		"password",
		"passwd",
		"token",
		"secret",
		"session",
		"auth",
	}

	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
