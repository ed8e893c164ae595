package api

import (
	"encoding/json"
	"fmt"
)

// envelope is the server's standard wrapper around successful responses.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// unwrapBody returns the payload of a 2xx body: the data field when the body
// matches the {success, data} envelope, otherwise the body as-is. Empty bodies
// come back as nil.
func unwrapBody(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Success != nil {
		return env.Data
	}
	return body
}

// errorBody is the server's error envelope. Every field is optional; the
// backend emits whichever subset the failing layer knows about.
type errorBody struct {
	Titulo  string              `json:"titulo"`
	Mensaje string              `json:"mensaje"`
	Detail  string              `json:"detail"`
	Warn    string              `json:"warn"`
	Warnes  map[string][]string `json:"warnes"`
}

// normalizeError builds an APIError from a raw error body, tolerating empty
// and non-JSON bodies.
func normalizeError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Title:      "Error",
		Message:    fmt.Sprintf("Error %d", statusCode),
		StatusCode: statusCode,
	}
	if len(body) == 0 {
		return apiErr
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return apiErr
	}
	if eb.Titulo != "" {
		apiErr.Title = eb.Titulo
	}
	switch {
	case eb.Mensaje != "":
		apiErr.Message = eb.Mensaje
	case eb.Detail != "":
		apiErr.Message = eb.Detail
	case eb.Warn != "":
		apiErr.Message = eb.Warn
	}
	if len(eb.Warnes) > 0 {
		apiErr.FieldErrors = eb.Warnes
	}
	return apiErr
}
