package arbeitsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes the backend may put in the "error" field.
const (
	ErrorCodeInvalidCredentials    = "invalid_credentials"
	ErrorCodeAccountDisabled       = "account_disabled"
	ErrorCodeCurrentSecretMismatch = "current_secret_mismatch"
	ErrorCodeValidation            = "validation_error"
	ErrorCodeUnauthenticated       = "unauthenticated"
)

// ErrTransport wraps every failure to obtain a response at all.
var ErrTransport = errors.New("arbeitsdk: transport failure")

// APIError is a non-2xx response from the backend.
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`

	// Code is the machine-readable error, possibly empty.
	Code string `json:"error"`

	// Detail is the human-readable message.
	Detail string `json:"detail"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("arbeitsdk: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("arbeitsdk: status %d: %s: %s", e.StatusCode, e.Code, e.Detail)
}

// IsServerError reports whether the backend failed rather than refused.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// parseErrorResponse builds an APIError from a response body. The backend
// sometimes sends {"detail": "..."} only, and sometimes a list of field
// errors under "detail".
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var raw struct {
		Error  string          `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		apiErr.Detail = strings.TrimSpace(http.StatusText(resp.StatusCode))
		return apiErr
	}

	apiErr.Code = raw.Error
	if len(raw.Detail) > 0 {
		var s string
		if err := json.Unmarshal(raw.Detail, &s); err == nil {
			apiErr.Detail = s
		} else {
			var items []struct {
				Msg string `json:"msg"`
			}
			if err := json.Unmarshal(raw.Detail, &items); err == nil {
				msgs := make([]string, 0, len(items))
				for _, it := range items {
					msgs = append(msgs, it.Msg)
				}
				apiErr.Detail = strings.Join(msgs, "; ")
				if apiErr.Code == "" {
					apiErr.Code = ErrorCodeValidation
				}
			}
		}
	}
	if apiErr.Detail == "" {
		apiErr.Detail = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
