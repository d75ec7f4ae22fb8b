package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name          string
		field         string
		message       string
		value         interface{}
		expectedError string
	}{
		{
			name:          "with field",
			field:         "rpc.ws",
			message:       "must bind to a loopback address",
			value:         "0.0.0.0:9944",
			expectedError: "validation error: rpc.ws: must bind to a loopback address",
		},
		{
			name:          "without field",
			field:         "",
			message:       "invalid input",
			value:         nil,
			expectedError: "validation error: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, tt.value)
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error %q, got %q", tt.expectedError, err.Error())
			}
			if err.Code() != CodeValidation {
				t.Errorf("Expected code %q, got %q", CodeValidation, err.Code())
			}
			if err.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, err.Field)
			}
		})
	}
}

func TestConfigErrorAggregates(t *testing.T) {
	p1 := fmt.Errorf("network.node_name: too long")
	p2 := fmt.Errorf("rpc.ws: not loopback")

	err := NewConfigError([]error{p1, p2})
	if err.Code() != CodeConfigError {
		t.Errorf("Expected code %q, got %q", CodeConfigError, err.Code())
	}
	if !strings.Contains(err.Error(), "too long") || !strings.Contains(err.Error(), "not loopback") {
		t.Errorf("Expected both problems in message, got %q", err.Error())
	}
	if !errors.Is(err, p1) || !errors.Is(err, p2) {
		t.Error("Expected problems to be reachable via errors.Is")
	}
	if !IsValidation(err) {
		t.Error("Expected IsValidation to be true for ConfigError")
	}
}

func TestServiceError(t *testing.T) {
	cause := errors.New("address already in use")
	err := NewServiceError("node-service", "", cause)

	if err.Error() != "node-service failed: address already in use" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if err.Code() != CodeServiceUnavailable {
		t.Errorf("Expected code %q, got %q", CodeServiceUnavailable, err.Code())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected cause to be preserved")
	}
	if !IsServiceError(err) {
		t.Error("Expected IsServiceError to be true")
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		if Wrap(nil, "context") != nil {
			t.Error("Expected nil")
		}
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		err := Wrap(errors.New("boom"), "opening store")
		if !IsInternal(err) {
			t.Error("Expected internal error")
		}
		if err.Error() != "opening store: boom" {
			t.Errorf("Unexpected message %q", err.Error())
		}
	})

	t.Run("typed error keeps code", func(t *testing.T) {
		inner := NewValidationError("params", "expected [method, data]", nil)
		err := Wrap(inner, "calling runtime")
		if GetErrorCode(err) != CodeValidation {
			t.Errorf("Expected code %q, got %q", CodeValidation, GetErrorCode(err))
		}
		if !IsValidation(err) {
			t.Error("Expected IsValidation through wrapper")
		}
	})
}

func TestStackTraceCaptured(t *testing.T) {
	err := NewInternalError("boom", nil).WithOperation("open")
	if err.Operation != "open" {
		t.Errorf("Expected operation open, got %q", err.Operation)
	}
	if !strings.Contains(err.StackTrace(), "TestStackTraceCaptured") {
		t.Errorf("Expected stack trace to contain the test function, got %q", err.StackTrace())
	}
}

func TestStackTraceThroughChain(t *testing.T) {
	err := fmt.Errorf("rpc: %w", NewInternalError("encode failed", nil))
	if !strings.Contains(StackTrace(err), "TestStackTraceThroughChain") {
		t.Errorf("Expected stack trace of the wrapped error, got %q", StackTrace(err))
	}
	if StackTrace(errors.New("plain")) != "" {
		t.Error("Expected no stack trace for a plain error")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("stopping background tasks", "30s")
	if err.Error() != "stopping background tasks timeout" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if !IsTimeout(fmt.Errorf("node: %w", err)) {
		t.Error("Expected IsTimeout through wrapper")
	}
	if IsTimeout(errors.New("deadline")) {
		t.Error("Expected plain errors not to be timeouts")
	}
	if GetErrorCode(err) != CodeTimeout {
		t.Errorf("Expected code %q, got %q", CodeTimeout, GetErrorCode(err))
	}
}
