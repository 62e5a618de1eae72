package dispatch

import (
	"errors"
	"net/http"
)

// ErrorClassifier translates an error escaping the middleware chain or
// handler into a response status and structured body. The dispatcher calls
// it exactly once per failed request, at the outer boundary.
type ErrorClassifier interface {
	Classify(c *Context, err error) (status int, body any)
}

// DefaultClassifier maps the framework error taxonomy onto HTTP statuses
// and a stable JSON error envelope:
//
//	{"error": {"code": "...", "message": "...", "request_id": "..."}}
//
// An *HTTPError picks its own status; one carrying a Body replaces the
// envelope entirely (the validation middleware uses that for its error
// bag). Everything unrecognized becomes a 500 with an opaque message so
// internal details never leak into responses.
type DefaultClassifier struct{}

func (DefaultClassifier) Classify(c *Context, err error) (int, any) {
	var he *HTTPError
	if errors.As(err, &he) {
		if he.Body != nil {
			return he.Status, he.Body
		}
		return he.Status, errEnvelope(he.Code, he.Message, c)
	}

	var bpe *BodyParseError
	if errors.As(err, &bpe) {
		return http.StatusBadRequest, errEnvelope("bad_request", "malformed request body", c)
	}

	var pe *PanicError
	if errors.As(err, &pe) {
		return http.StatusInternalServerError, errEnvelope("internal_error", "internal server error", c)
	}

	return http.StatusInternalServerError, errEnvelope("internal_error", "internal server error", c)
}

func errEnvelope(code, message string, c *Context) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"code":       code,
			"message":    message,
			"request_id": c.RequestID,
		},
	}
}
