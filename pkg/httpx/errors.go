package httpx

import "net/http"

// ErrorResponse is the JSON error envelope shared by every endpoint.
type ErrorResponse struct {
	Code             int    `json:"-"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError writes the envelope with its status code.
func (e ErrorResponse) WriteError(w http.ResponseWriter) {
	WriteJSON(w, e.Code, e)
}

// Canned responses. The credential failures share one vague message so a
// caller cannot tell a bad username from a bad password or a disabled
// account.
var (
	ErrInvalidRequest = ErrorResponse{
		Code: http.StatusBadRequest, Error: "invalid_request",
		ErrorDescription: "A required parameter is missing or malformed.",
	}
	ErrInvalidJSONBody = ErrorResponse{
		Code: http.StatusBadRequest, Error: "invalid_request",
		ErrorDescription: "The request body must be valid JSON.",
	}
	ErrInvalidCredentials = ErrorResponse{
		Code: http.StatusUnauthorized, Error: "invalid_credentials",
		ErrorDescription: "Authentication failed.",
	}
	ErrInvalidToken = ErrorResponse{
		Code: http.StatusUnauthorized, Error: "invalid_token",
		ErrorDescription: "The access token was not accepted.",
	}
	ErrForbidden = ErrorResponse{
		Code: http.StatusForbidden, Error: "forbidden",
		ErrorDescription: "The caller is not allowed to perform this operation.",
	}
	ErrNotFound = ErrorResponse{
		Code: http.StatusNotFound, Error: "not_found",
	}
	ErrRateLimited = ErrorResponse{
		Code: http.StatusTooManyRequests, Error: "rate_limit_exceeded",
		ErrorDescription: "Too many requests, retry later.",
	}
	ErrServerError = ErrorResponse{
		Code: http.StatusInternalServerError, Error: "server_error",
		ErrorDescription: "Something went wrong handling the request.",
	}
)
