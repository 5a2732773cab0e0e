package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
)

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ie, ok := asIndexError(err)
	if !ok {
		ie = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", ie.Message))
	if ie.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", ie.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", ie.Code))

	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	ie, ok := asIndexError(err)
	if !ok {
		ie = Wrap(ErrCodeInternal, err)
	}

	je := jsonError{
		Code:       ie.Code,
		Message:    ie.Message,
		Category:   string(ie.Category),
		Severity:   string(ie.Severity),
		Details:    ie.Details,
		Suggestion: ie.Suggestion,
		Retryable:  ie.Retryable,
	}
	if ie.Cause != nil {
		je.Cause = ie.Cause.Error()
	}

	return json.Marshal(je)
}

// LogAttrs returns slog attributes describing err.
func LogAttrs(err error) []slog.Attr {
	if err == nil {
		return nil
	}

	ie, ok := asIndexError(err)
	if !ok {
		return []slog.Attr{slog.String("error", err.Error())}
	}

	attrs := []slog.Attr{
		slog.String("error_code", ie.Code),
		slog.String("error", ie.Message),
		slog.Bool("retryable", ie.Retryable),
	}
	if ie.Cause != nil {
		attrs = append(attrs, slog.String("cause", ie.Cause.Error()))
	}
	for k, v := range ie.Details {
		attrs = append(attrs, slog.String("detail_"+k, v))
	}
	return attrs
}

func asIndexError(err error) (*IndexError, bool) {
	var ie *IndexError
	if stderrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
