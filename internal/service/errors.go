package service

// AuthError is a domain-rule failure carried as a dotted translation
// key (e.g. "auth.invalidCredentials") plus optional interpolation
// params. Handlers translate the key under the "errors." namespace.
type AuthError struct {
	Key    string
	Params map[string]any
}

func (e *AuthError) Error() string { return e.Key }

func authErr(key string) *AuthError { return &AuthError{Key: key} }

// ValidationError carries a field-level message surfaced to the user
// verbatim. Only the first failed check of a form is reported.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErr(msg string) *ValidationError { return &ValidationError{Message: msg} }
