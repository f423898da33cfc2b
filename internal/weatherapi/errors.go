package weatherapi

import (
	"fmt"
	"net/url"
	"strings"
)

// FormatError reports a caller-supplied parameter that violates a documented
// constraint. It is always returned before any request is sent.
type FormatError struct {
	Param   string
	Message string
}

func (e *FormatError) Error() string {
	return e.Message
}

func formatErrorf(param, format string, args ...any) *FormatError {
	return &FormatError{Param: param, Message: fmt.Sprintf(format, args...)}
}

// ResponseError reports a round trip that did not succeed: either the
// transport failed (Err is set, StatusCode is 0) or upstream answered with a
// non-2xx status. Body holds the raw upstream payload, untranslated.
type ResponseError struct {
	Endpoint   string
	StatusCode int
	Status     string
	Body       []byte
	Err        error
}

func (e *ResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("weatherapi: %s request failed: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("weatherapi: %s returned %s", e.Endpoint, e.Status)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// redactedError hides the credential that net/http embeds in *url.Error messages.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redactKey(err error, key string) error {
	if err == nil || key == "" {
		return err
	}
	msg := err.Error()
	redacted := strings.NewReplacer(
		"key="+url.QueryEscape(key), "key=REDACTED",
		"key="+key, "key=REDACTED",
	).Replace(msg)
	if redacted == msg {
		return err
	}
	return &redactedError{msg: redacted, err: err}
}
