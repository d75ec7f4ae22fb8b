package errors

// Error codes carried by BaseError. ToRPCError maps them onto JSON-RPC
// error codes.
const (
	// CodeOK is reported for a nil error.
	CodeOK = "OK"

	// CodeInternal is a failure inside the node with no better description.
	CodeInternal = "INTERNAL"

	// CodeValidation means caller input or a configuration value was rejected.
	CodeValidation = "VALIDATION_ERROR"

	// CodeConfigError means an assembled configuration failed validation.
	CodeConfigError = "CONFIG_ERROR"

	// CodeTimeout means an operation ran past its deadline.
	CodeTimeout = "TIMEOUT"

	// CodeServiceUnavailable means the node service or one of its
	// components failed.
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)
