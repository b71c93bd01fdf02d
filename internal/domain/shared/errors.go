package shared

// DomainError is an error with a stable code the HTTP layer maps to a status
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Subject names the offending value, e.g. the resource or column id
	Subject string `json:"subject,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Subject == "" {
		return e.Message
	}
	return e.Message + ": " + e.Subject
}

// Is matches any DomainError with the same code, so errors.Is works against
// the package-level sentinels after About
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// About returns a copy of the error naming the offending value
func (e *DomainError) About(subject string) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Subject: subject}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}
