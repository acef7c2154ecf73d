package parkeren

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Classify maps a raw response into an Outcome. It never fails: every input
// produces exactly one tagged outcome.
func Classify(status int, body []byte) Outcome {
	trimmed := bytes.TrimSpace(body)

	if code := extractCode(trimmed); code != "" {
		code = normalizeCode(code)
		if IsSessionInvalidCode(code) {
			return AuthExpired(status, code)
		}
		if msg, ok := LookupErrorMessage(code); ok {
			return BusinessError(status, code, msg)
		}
		return UnknownError(status, code)
	}

	switch {
	case status == http.StatusUnauthorized:
		return AuthExpired(status, "")
	case status == http.StatusNoContent:
		return Success(status, nil)
	case status >= 200 && status < 300:
		return classifySuccessBody(status, trimmed)
	case status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable,
		status == http.StatusGatewayTimeout:
		return TransportError(fmt.Errorf("upstream unavailable: status %d", status))
	default:
		return UnknownError(status, "")
	}
}

// classifySuccessBody accepts JSON objects and arrays as success payloads
func classifySuccessBody(status int, body []byte) Outcome {
	if len(body) == 0 {
		return Success(status, nil)
	}
	if !json.Valid(body) {
		return TransportError(fmt.Errorf("%w: status %d", ErrMalformedResponse, status))
	}
	switch body[0] {
	case '{', '[':
		return Success(status, body)
	default:
		// null or a bare scalar is neither a payload nor an error
		return UnknownError(status, "")
	}
}

// extractCode returns the error code embedded in a JSON object body, if any.
// Recognised shapes: {"code": ".."}, {"error_code": ".."} and {"error": {"code": ".."}}.
func extractCode(body []byte) string {
	if len(body) == 0 || body[0] != '{' {
		return ""
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"code", "error_code"} {
		if code := stringField(fields[key]); code != "" {
			return code
		}
	}
	if nested, ok := fields["error"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			return stringField(inner["code"])
		}
	}
	return ""
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
