package errors

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	apperrors "github.com/Liad-hossain/test-voice-export/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, "", Classify(nil))
	assert.Equal(t, "errors_errorstring", Classify(errors.New("x")))

	wrapped := apperrors.Wrap(&url.Error{Op: "Get", URL: "u", Err: errors.New("refused")}, apperrors.ErrCodeTransport, "get")
	assert.Equal(t, "errors_errorstring", Classify(wrapped))

	leaf := apperrors.Data("missing field")
	assert.Equal(t, "errors_apperror", Classify(fmt.Errorf("ctx: %w", leaf)))
}

func TestCodeAndTags(t *testing.T) {
	assert.Equal(t, "", Code(nil))
	assert.Equal(t, "unknown", Code(errors.New("plain")))
	assert.Equal(t, "decode", Code(apperrors.Decodef("bad zip")))

	assert.Nil(t, Tags(nil))
	assert.Equal(t, map[string]string{
		"error_code":  "io",
		"error_class": "errors_apperror",
	}, Tags(apperrors.IOf("disk full")))
}
