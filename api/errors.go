// ABOUTME: Backend error decoding for write operations
// ABOUTME: Extracts the single display message from the {data: {name}} error envelope
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// GenericErrorMessage is shown when the backend error has no recognizable message.
const GenericErrorMessage = "unexpected error communicating with the server"

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string // from data.name when the body has the expected shape
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
}

// errorResponse is the body shape the backend uses for rejected writes.
// Older endpoints answer with a top-level error or message instead.
type errorResponse struct {
	Data *struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Body: body}

	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return e
	}
	switch {
	case parsed.Data != nil && parsed.Data.Name != "":
		e.Message = parsed.Data.Name
	case parsed.Data != nil && parsed.Data.Message != "":
		e.Message = parsed.Data.Message
	case parsed.Error != "":
		e.Message = parsed.Error
	case parsed.Message != "":
		e.Message = parsed.Message
	}
	return e
}

// DisplayMessage returns the single message to show for a failed write and
// whether it came from a recognized backend error shape.
func DisplayMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return GenericErrorMessage, false
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
