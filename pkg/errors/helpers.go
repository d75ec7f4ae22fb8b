package errors

import "errors"

// IsValidation reports whether err is a validation or configuration error.
func IsValidation(err error) bool {
	var validationErr *ValidationError
	var configErr *ConfigError
	return errors.As(err, &validationErr) || errors.As(err, &configErr)
}

// IsTimeout reports whether err is a TimeoutError.
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// IsServiceError reports whether err came from the node service layer.
func IsServiceError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}

// IsInternal reports whether err is an InternalError.
func IsInternal(err error) bool {
	var internalErr *InternalError
	return errors.As(err, &internalErr)
}

// GetErrorCode extracts the error code from an error. Errors from outside
// this package are internal.
func GetErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Code()
	}
	return CodeInternal
}

// GetErrorMessage extracts a human-readable message from an error.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Message()
	}

	return err.Error()
}

// StackTrace returns the stack captured when err, or the first typed error
// in its chain, was created.
func StackTrace(err error) string {
	var traced interface{ StackTrace() string }
	if errors.As(err, &traced) {
		return traced.StackTrace()
	}
	return ""
}
