package parkeren

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Request describes one logical API call. It is built per call and not retained.
type Request struct {
	Method       string
	Path         string
	Payload      any
	Headers      map[string]string
	RequiresAuth bool
}

// Page selects a window of a list endpoint through the x-data headers
type Page struct {
	Limit  int
	Offset int
}

// headers returns the paging headers understood by list endpoints
func (p Page) headers() map[string]string {
	return map[string]string{
		"x-data-limit":  strconv.Itoa(p.Limit),
		"x-data-offset": strconv.Itoa(p.Offset),
	}
}

// authenticated builds a Request that requires a session
func authenticated(method, path string, payload any) Request {
	return Request{Method: method, Path: path, Payload: payload, RequiresAuth: true}
}

// encodeBody marshals the payload once so retries can replay it
func (r Request) encodeBody() ([]byte, error) {
	if r.Payload == nil {
		return nil, nil
	}
	data, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload for %s %s: %w", r.Method, r.Path, err)
	}
	return data, nil
}

// build creates the HTTP request for one attempt
func (r Request) build(ctx context.Context, baseURL string, body []byte, cred Credential) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, baseURL+r.Path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	setStandardHeaders(req.Header)
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	if r.RequiresAuth {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: cred.Value})
	}
	return req, nil
}
