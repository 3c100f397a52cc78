// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Library operations
	OpLibraryLoad  Op = "load library"
	OpLibraryScan  Op = "scan library"
	OpLibraryCount Op = "count library tracks"

	// Import operations
	OpImportFile  Op = "import file"
	OpImportTags  Op = "read file tags"
	OpImportWatch Op = "watch import directory"

	// Search operations
	OpSearch Op = "search library"

	// Initialization
	OpConfigLoad Op = "load config"
	OpLogOpen    Op = "open log file"
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
