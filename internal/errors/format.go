package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// FormatForUser returns a user-friendly error message.
// If debug is true, the underlying cause and details are included.
func FormatForUser(err error, debug bool) string {
	if err == nil {
		return ""
	}

	var be *BMError
	if !errors.As(err, &be) {
		return err.Error()
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(be.Message)
	sb.WriteString("\n")

	if be.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(be.Suggestion)
		sb.WriteString("\n")
	}

	if debug {
		if be.Cause != nil {
			fmt.Fprintf(&sb, "\nCause: %v\n", be.Cause)
		}
		for k, v := range be.Details {
			fmt.Fprintf(&sb, "  %s: %s\n", k, v)
		}
	}

	fmt.Fprintf(&sb, "\n[%s]", be.Code)
	return sb.String()
}

// FormatForCLI formats an error for CLI output.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var be *BMError
	if !errors.As(err, &be) {
		be = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", be.Message)
	if be.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", be.Suggestion)
	}
	fmt.Fprintf(&sb, "  Code: %s\n", be.Code)
	return sb.String()
}

// LogAttrs returns slog attributes describing err.
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}

	var be *BMError
	if !errors.As(err, &be) {
		return []any{slog.String("error", err.Error())}
	}

	attrs := []any{
		slog.String("error_code", be.Code),
		slog.String("category", string(be.Category)),
		slog.String("error", be.Message),
	}
	if be.Cause != nil {
		attrs = append(attrs, slog.String("cause", be.Cause.Error()))
	}
	for k, v := range be.Details {
		attrs = append(attrs, slog.String("detail_"+k, v))
	}
	return attrs
}
