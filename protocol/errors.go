package protocol

import "fmt"

// MCPError wraps ErrorPayload to implement the error interface.
// Handlers can return this type to provide specific JSON-RPC error details.
type MCPError struct {
	ErrorPayload
}

// Error implements the error interface for MCPError.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP Error: Code=%d, Message=%s", e.Code, e.Message)
}

// NewInvalidParamsError creates an MCPError for invalid params.
func NewInvalidParamsError(message string) *MCPError {
	return &MCPError{
		ErrorPayload: ErrorPayload{
			Code:    CodeInvalidParams,
			Message: message,
		},
	}
}

// NewMethodNotFoundError creates an MCPError for an unknown method.
func NewMethodNotFoundError(methodName string) *MCPError {
	return &MCPError{
		ErrorPayload: ErrorPayload{
			Code:    CodeMethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", methodName),
		},
	}
}

// NewToolNotFoundError creates an MCPError for a call to an unregistered
// tool. MCP reports unknown tools as invalid params.
func NewToolNotFoundError(toolName string) *MCPError {
	return &MCPError{
		ErrorPayload: ErrorPayload{
			Code:    CodeInvalidParams,
			Message: fmt.Sprintf("Tool not found: %s", toolName),
		},
	}
}
