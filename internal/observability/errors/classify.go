package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/Liad-hossain/test-voice-export/internal/errors"
)

// Classify returns a normalized error type name suitable for tagging metrics/logs.
// It unwraps errors until the innermost concrete type is found and converts it to snake_case-ish.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	// Unwrap to the innermost error for better signal.
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}

// Code returns the pipeline error code carried by err, or "unknown" for foreign errors.
func Code(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	return "unknown"
}

// Tags returns the error tags attached to failed stage metrics.
func Tags(err error) map[string]string {
	if err == nil {
		return nil
	}
	return map[string]string{
		"error_code":  Code(err),
		"error_class": Classify(err),
	}
}
