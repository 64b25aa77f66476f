package services

// Error codes returned by the service layer. Controllers map these onto HTTP
// statuses; the codes themselves are stable for API clients.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeInvalidState    = "INVALID_STATE"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
)

// ServiceError is a business-rule or lookup failure raised by a service
// operation. The Code identifies the error class, the Message is safe to show
// to API clients.
type ServiceError struct {
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NotFoundError indicates a missing or soft-deleted entity.
func NotFoundError(message string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: message}
}

// UnauthorizedError indicates a missing or invalid identity.
func UnauthorizedError(message string) *ServiceError {
	return &ServiceError{Code: CodeUnauthorized, Message: message}
}

// ForbiddenError indicates an authenticated caller without the required role
// or ownership.
func ForbiddenError(message string) *ServiceError {
	return &ServiceError{Code: CodeForbidden, Message: message}
}

// InvalidStateError indicates a business-rule violation such as insufficient
// stock or an illegal status transition.
func InvalidStateError(message string) *ServiceError {
	return &ServiceError{Code: CodeInvalidState, Message: message}
}

// ExternalError indicates a failure talking to an external system. The
// message must never include credentials or raw provider responses.
func ExternalError(message string) *ServiceError {
	return &ServiceError{Code: CodeExternalService, Message: message}
}

// ErrorCode extracts the service error code from err, or returns an empty
// string for non-service errors.
func ErrorCode(err error) string {
	if se, ok := err.(*ServiceError); ok {
		return se.Code
	}
	return ""
}
