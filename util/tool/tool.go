// Package tool provides utilities for defining MCP tools.
package tool

import (
	"context"

	"github.com/localrivet/iotmcp/protocol"
)

// Handler executes a tool call. The returned bool marks the content as a
// tool error.
type Handler func(ctx context.Context, arguments map[string]interface{}) ([]protocol.Content, bool)

// ToolHandler is the interface that tool implementations should satisfy.
type ToolHandler interface {
	// Tool returns the tool definition.
	Tool() protocol.Tool
	// Handler returns the tool's handler function.
	Handler() Handler
}

// BaseTool provides a base implementation of ToolHandler.
type BaseTool struct {
	name        string
	description string
	schema      protocol.ToolInputSchema
	annotations protocol.ToolAnnotations
	handler     Handler
}

// NewBaseTool creates a new base tool with the given name and description.
// The input schema defaults to an empty object.
func NewBaseTool(name, description string) *BaseTool {
	return &BaseTool{
		name:        name,
		description: description,
		schema:      protocol.ToolInputSchema{Type: "object"},
	}
}

// WithSchema sets the tool's input schema.
func (t *BaseTool) WithSchema(schema protocol.ToolInputSchema) *BaseTool {
	t.schema = schema
	return t
}

// WithAnnotations sets the tool's behavior hints.
func (t *BaseTool) WithAnnotations(annotations protocol.ToolAnnotations) *BaseTool {
	t.annotations = annotations
	return t
}

// WithHandler sets the tool's handler function.
func (t *BaseTool) WithHandler(handler Handler) *BaseTool {
	t.handler = handler
	return t
}

// Tool implements ToolHandler.Tool.
func (t *BaseTool) Tool() protocol.Tool {
	return protocol.Tool{
		Name:        t.name,
		Description: t.description,
		InputSchema: t.schema,
		Annotations: t.annotations,
	}
}

// Handler implements ToolHandler.Handler.
func (t *BaseTool) Handler() Handler {
	return t.handler
}
