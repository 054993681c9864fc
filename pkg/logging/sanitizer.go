package logging

import (
	"regexp"

	"go.uber.org/zap"
)

const (
	// MaxQueryLogLength is the maximum length of a query to log
	MaxQueryLogLength = 100
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx up to the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Azure AD service principal secrets
	secretPattern = regexp.MustCompile(`(?i)(client_secret|clientsecret|secret)=[^;&\s]+`)

	// user:pass@host in sqlserver:// and postgresql:// URLs
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s?]+`)
)

func redact(s string) string {
	s = passwordPattern.ReplaceAllString(s, "${1}="+RedactedText)
	s = secretPattern.ReplaceAllString(s, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(s, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeConnectionString removes credentials from a connection string.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	return redact(connStr)
}

// SanitizeError returns err's message with credentials removed. Driver
// errors may echo the connection string they were given.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return redact(err.Error())
}

// SanitizeQuery truncates a SQL statement for logging and strips credentials.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}
	return redact(TruncateString(query, MaxQueryLogLength))
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Error is a zap field carrying the sanitized error message.
func Error(err error) zap.Field {
	return zap.String("error", SanitizeError(err))
}
