// Package response provides utilities for creating MCP tool responses.
package response

import (
	"encoding/json"

	"github.com/localrivet/iotmcp/protocol"
)

// Error creates an error response with the given message.
func Error(msg string) ([]protocol.Content, bool) {
	return []protocol.Content{protocol.NewTextContent(msg)}, true
}

// JSON creates a text response holding v encoded as JSON.
func JSON(v interface{}) ([]protocol.Content, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		return Error("Failed to marshal response: " + err.Error())
	}
	return []protocol.Content{protocol.NewTextContent(string(b))}, false
}
