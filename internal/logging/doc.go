// Package logging provides structured logging utilities for meetlink.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Logger construction with level, text/JSON format and optional rotating file output
//   - PII sanitization (email anonymization)
//   - Consistent attribute naming for provisioning steps, calendars and conferences
//
// # Usage Patterns
//
// Build the process logger:
//
//	logger, closer, err := logging.New(logging.Options{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//
// Sanitize sensitive data before logging:
//
//	logger.Info("meeting created",
//	    logging.UserHash(email),
//	    logging.CalendarID(calID))
//
// # Security Considerations
//
//   - User emails are hashed to prevent PII leakage while allowing correlation
//   - Tokens and session cookies are never logged directly
package logging
