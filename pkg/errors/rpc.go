package errors

import "errors"

// JSON-RPC 2.0 reserved error codes.
const (
	RPCParseError     = -32700
	RPCInvalidRequest = -32600
	RPCMethodNotFound = -32601
	RPCInvalidParams  = -32602
	RPCInternalError  = -32603

	// RPCServerError is the start of the implementation-defined range.
	RPCServerError = -32000
	// RPCUnsafeMethod is returned when a privileged method is called on a
	// channel that only exposes safe methods.
	RPCUnsafeMethod = -32001
)

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return e.Message
}

// JSONRPCCode maps an error to a JSON-RPC error code.
func JSONRPCCode(err error) int {
	if err == nil {
		return 0
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code
	}

	return codeToRPC(GetErrorCode(err))
}

// codeToRPC maps error codes to JSON-RPC error codes.
func codeToRPC(code string) int {
	switch code {
	case CodeValidation, CodeConfigError:
		return RPCInvalidParams
	case CodeServiceUnavailable, CodeTimeout:
		return RPCServerError
	default:
		return RPCInternalError
	}
}

// ToRPCError converts an error to a JSON-RPC error object.
func ToRPCError(err error) *RPCError {
	if err == nil {
		return nil
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	out := &RPCError{
		Code:    JSONRPCCode(err),
		Message: GetErrorMessage(err),
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) && validationErr.Field != "" {
		out.Data = map[string]string{"field": validationErr.Field}
	}
	return out
}
