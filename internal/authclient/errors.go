package authclient

import (
	"encoding/json"
	"fmt"
)

// APIError is an error response from the auth provider. Message carries the
// provider's own wording, which the web UI surfaces verbatim.
type APIError struct {
	Status    int
	ErrorCode string
	Message   string
}

func (e *APIError) Error() string {
	return e.Message
}

// errorBody covers the provider's error shapes: newer responses carry
// msg/error_code, OAuth-style ones carry error/error_description.
type errorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorCode        string `json:"error_code"`
	ErrorField       string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func parseAPIError(status int, raw []byte) error {
	apiErr := &APIError{Status: status}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.ErrorCode = body.ErrorCode
		switch {
		case body.Msg != "":
			apiErr.Message = body.Msg
		case body.ErrorDescription != "":
			apiErr.Message = body.ErrorDescription
		case body.Message != "":
			apiErr.Message = body.Message
		case body.ErrorField != "":
			apiErr.Message = body.ErrorField
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("auth provider request failed with status %d", status)
	}

	return apiErr
}
