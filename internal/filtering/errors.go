package filtering

import (
	"errors"
	"fmt"
)

// Sentinel errors for programming mistakes. They abort construction or wiring,
// never data processing.
var (
	ErrArity          = errors.New("wrong number of streams")
	ErrStreamClosed   = errors.New("stream is closed")
	ErrStreamEmpty    = errors.New("stream is empty")
	ErrDuplicateState = errors.New("aggregate state key already registered")
	ErrUnknownState   = errors.New("aggregate state key not registered")
	ErrTickBudget     = errors.New("tick budget exhausted")
	ErrNoLayers       = errors.New("net has no layers")
)

// ErrorType represents the type of engine error
type ErrorType string

const (
	ErrorTypeArity    ErrorType = "arity"
	ErrorTypeWiring   ErrorType = "wiring"
	ErrorTypeState    ErrorType = "state"
	ErrorTypeStep     ErrorType = "step"
	ErrorTypeBudget   ErrorType = "budget"
	ErrorTypeInvalid  ErrorType = "invalid"
	ErrorTypeInternal ErrorType = "internal"
)

// EngineError represents an engine-specific error
type EngineError struct {
	Type    ErrorType      `json:"type"`
	Filter  string         `json:"filter,omitempty"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e == nil {
		return "unknown engine error"
	}
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Filter != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Filter, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewArityError creates an error for a stream list of the wrong length
func NewArityError(filter, direction string, want Arity, got int) *EngineError {
	return &EngineError{
		Type:    ErrorTypeArity,
		Filter:  filter,
		Message: fmt.Sprintf("%s streams: want %s, got %d", direction, want, got),
		Cause:   ErrArity,
		Context: map[string]any{
			"direction": direction,
			"got":       got,
		},
	}
}

// NewWiringError creates an error raised while resolving stream names
func NewWiringError(filter, message string, cause error) *EngineError {
	return &EngineError{
		Type:    ErrorTypeWiring,
		Filter:  filter,
		Message: message,
		Cause:   cause,
	}
}

// NewStateError creates an aggregate state error
func NewStateError(key string, cause error) *EngineError {
	return &EngineError{
		Type:    ErrorTypeState,
		Message: fmt.Sprintf("state key %q", key),
		Cause:   cause,
		Context: map[string]any{
			"key": key,
		},
	}
}

// NewStepError wraps an error returned while stepping a filter
func NewStepError(filter string, layer int, cause error) *EngineError {
	return &EngineError{
		Type:    ErrorTypeStep,
		Filter:  filter,
		Message: fmt.Sprintf("step failed in layer %d", layer),
		Cause:   cause,
		Context: map[string]any{
			"layer": layer,
		},
	}
}

// NewTickBudgetError creates an error for a run that exceeded its tick budget
func NewTickBudgetError(ticks int) *EngineError {
	return &EngineError{
		Type:    ErrorTypeBudget,
		Message: fmt.Sprintf("stopped after %d ticks", ticks),
		Cause:   ErrTickBudget,
		Context: map[string]any{
			"ticks": ticks,
		},
	}
}

// NewInvalidOptionsError wraps an option validation failure
func NewInvalidOptionsError(filter string, cause error) *EngineError {
	return &EngineError{
		Type:    ErrorTypeInvalid,
		Filter:  filter,
		Message: "invalid options",
		Cause:   cause,
	}
}

// GetErrorType returns the type of the error
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var eErr *EngineError
	if errors.As(err, &eErr) {
		return eErr.Type
	}
	return ErrorTypeInternal
}
