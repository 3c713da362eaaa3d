package errors

import (
	"net/http"
	"strings"
)

// Error kinds surfaced to clients in the "error" field.
const (
	CodeInvalidCredential = "invalid_credential"
	CodeForbidden         = "forbidden"
	CodeUnknownCommand    = "unknown_command"
	CodeInvalidPayload    = "invalid_payload"
	CodeBadRequest        = "bad_request"
	CodeNotFound          = "not_found"
	CodeUnprocessable     = "unprocessable_entity"
	CodeInternal          = "internal_error"
)

// Standard for Error reponses to the client, REST and channel alike.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Status  int         `json:"status"`
	Code    string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error is required by the error interface.
func (e ErrorResponse) Error() string {
	return e.Message
}

// Get the StatusCode of the error.
func (e ErrorResponse) StatusCode() int {
	return e.Status
}

// Is matches two ErrorResponses by their kind, so errors.Is(err, errors.Forbidden("")) works
// regardless of message or details.
func (e ErrorResponse) Is(target error) bool {
	t, ok := target.(ErrorResponse)
	return ok && t.Code == e.Code
}

// Replicates the New method of default errors package.
func New(err string) error {
	return ErrorResponse{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: err,
	}
}

// InternalServerError creates a new error response representing an internal server error (HTTP 500)
func InternalServerError(msg string) ErrorResponse {
	if msg == "" {
		msg = "We encountered an error while processing your request."
	}
	return ErrorResponse{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: msg,
	}
}

// NotFound creates a new error response representing a resource-not-found error (HTTP 404)
func NotFound(msg string) ErrorResponse {
	if msg == "" {
		msg = "The requested resource was not found."
	}
	return ErrorResponse{
		Status:  http.StatusNotFound,
		Code:    CodeNotFound,
		Message: msg,
	}
}

// Unauthorized creates a new error response representing a missing, malformed or expired credential (HTTP 401)
func Unauthorized(msg string) ErrorResponse {
	if msg == "" {
		msg = "You are not authenticated to perform the requested action."
	}
	return ErrorResponse{
		Status:  http.StatusUnauthorized,
		Code:    CodeInvalidCredential,
		Message: msg,
	}
}

// Forbidden creates a new error response representing an authorization failure (HTTP 403)
func Forbidden(msg string) ErrorResponse {
	if msg == "" {
		msg = "You are not authorized to perform the requested action."
	}
	return ErrorResponse{
		Status:  http.StatusForbidden,
		Code:    CodeForbidden,
		Message: msg,
	}
}

// BadRequest creates a new error response representing a bad request (HTTP 400)
func BadRequest(msg string) ErrorResponse {
	if msg == "" {
		msg = "Your request is in a bad format."
	}
	return ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    CodeBadRequest,
		Message: msg,
	}
}

// UnprocessableEntity creates a new error response representing a body that couldn't be decoded (HTTP 422)
func UnprocessableEntity(msg string) ErrorResponse {
	if msg == "" {
		msg = "The request body couldn't be processed."
	}
	return ErrorResponse{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeUnprocessable,
		Message: msg,
	}
}

// UnknownCommand is returned by the command router for names it doesn't dispatch.
func UnknownCommand(name string) ErrorResponse {
	return ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    CodeUnknownCommand,
		Message: "Unknown command: " + name,
	}
}

// InvalidPayload is returned when a known command carries a payload it can't act on.
func InvalidPayload(name, msg string) ErrorResponse {
	return ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    CodeInvalidPayload,
		Message: name + ": " + msg,
	}
}

// Standard for Validation-error responses to the client.
type validationError struct {
	Param   string `json:"param"`   // Parameter or Field
	Message string `json:"message"` // Issue in Field
}

// Captures multiple validation issues and sends it as a response in one go.
type ValidationErrorResponse struct {
	Response []validationError `json:"errors"`
}

// Scans through set of validation errors found by govalidator,
// Generates a slice of serializable validationErrorResponse.
func GenerateValidationErrorResponse(errs []error) ErrorResponse {
	// govalidator returns array of errors in -> Param:Message format
	// We split the error from ":"
	resp := []validationError{}
	for _, err := range errs {
		e := strings.SplitN(err.Error(), ":", 2)
		if len(e) < 2 {
			resp = append(resp, validationError{Message: strings.TrimSpace(e[0])})
			continue
		}
		resp = append(
			resp, validationError{
				Param:   e[0],
				Message: strings.TrimSpace(e[1]),
			},
		)
	}
	return ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    CodeBadRequest,
		Message: "Data validation error",
		Details: ValidationErrorResponse{Response: resp},
	}
}

// AsResponse converts any error into an ErrorResponse, falling back to a 500.
func AsResponse(err error) ErrorResponse {
	if resp, ok := err.(ErrorResponse); ok {
		return resp
	}
	return InternalServerError("")
}
