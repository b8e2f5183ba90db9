package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/iotmcp/protocol"
	"github.com/localrivet/iotmcp/util/response"
	"github.com/localrivet/iotmcp/util/tool"
)

type rpcResponse struct {
	JSONRPC string                 `json:"jsonrpc"`
	ID      interface{}            `json:"id"`
	Result  json.RawMessage        `json:"result"`
	Error   *protocol.ErrorPayload `json:"error"`
}

func echoHandler(_ context.Context, args map[string]interface{}) ([]protocol.Content, bool) {
	return response.JSON(args)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv := NewServer("test-server", WithVersion("1.2.3"), WithInstructions("use the tools"))
	require.NoError(t, srv.RegisterTool(protocol.Tool{Name: "echo", Description: "echo"}, echoHandler))
	require.NoError(t, srv.AddTool(tool.NewBaseTool("boom", "panics").
		WithHandler(func(context.Context, map[string]interface{}) ([]protocol.Content, bool) {
			panic("kaboom")
		})))
	return srv
}

func call(t *testing.T, srv *Server, msg string) rpcResponse {
	t.Helper()
	out := srv.HandleMessage(context.Background(), []byte(msg))
	require.NotNil(t, out, "expected a response to %s", msg)
	var resp rpcResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "2.0", resp.JSONRPC)
	return resp
}

func TestRegisterTool(t *testing.T) {
	srv := NewServer("test")

	assert.Error(t, srv.RegisterTool(protocol.Tool{}, echoHandler), "empty name")
	assert.Error(t, srv.RegisterTool(protocol.Tool{Name: "x"}, nil), "nil handler")
	require.NoError(t, srv.RegisterTool(protocol.Tool{Name: "b"}, echoHandler))
	require.NoError(t, srv.RegisterTool(protocol.Tool{Name: "a"}, echoHandler))
	assert.Error(t, srv.RegisterTool(protocol.Tool{Name: "a"}, echoHandler), "duplicate")

	tools := srv.Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, "b", tools[0].Name)
	assert.Equal(t, "a", tools[1].Name)
	assert.Equal(t, "object", tools[0].InputSchema.Type)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		want      string
	}{
		{"current", protocol.CurrentProtocolVersion, protocol.CurrentProtocolVersion},
		{"older supported", protocol.OldProtocolVersion, protocol.OldProtocolVersion},
		{"unknown", "1999-01-01", protocol.CurrentProtocolVersion},
		{"missing", "", protocol.CurrentProtocolVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			resp := call(t, srv, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"`+tt.requested+`","clientInfo":{"name":"agent","version":"9"}}}`)
			require.Nil(t, resp.Error)

			var result protocol.InitializeResult
			require.NoError(t, json.Unmarshal(resp.Result, &result))
			assert.Equal(t, tt.want, result.ProtocolVersion)
			assert.Equal(t, "test-server", result.ServerInfo.Name)
			assert.Equal(t, "1.2.3", result.ServerInfo.Version)
			assert.Equal(t, "use the tools", result.Instructions)
			assert.NotNil(t, result.Capabilities.Tools)

			info, version, initialized := srv.ClientInfo()
			assert.Equal(t, "agent", info.Name)
			assert.Equal(t, tt.want, version)
			assert.False(t, initialized)

			assert.Nil(t, srv.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
			_, _, initialized = srv.ClientInfo()
			assert.True(t, initialized)
		})
	}
}

func TestPing(t *testing.T) {
	resp := call(t, newTestServer(t), `{"jsonrpc":"2.0","id":"p","method":"ping"}`)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "p", resp.ID)
	assert.JSONEq(t, `{}`, string(resp.Result))
}

func TestListTools(t *testing.T) {
	resp := call(t, newTestServer(t), `{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{"cursor":"ignored"}}`)
	require.Nil(t, resp.Error)

	var result protocol.ListToolsResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Tools, 2)
	assert.Equal(t, "echo", result.Tools[0].Name)
	assert.Equal(t, "boom", result.Tools[1].Name)
}

type callResult struct {
	Content []protocol.TextContent `json:"content"`
	IsError bool                   `json:"isError"`
}

func TestCallTool(t *testing.T) {
	srv := newTestServer(t)

	resp := call(t, srv, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"a":1}}}`)
	require.Nil(t, resp.Error)
	var result callResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	assert.JSONEq(t, `{"a":1}`, result.Content[0].Text)

	// Missing arguments reach the handler as an empty object.
	resp = call(t, srv, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"echo"}}`)
	require.Nil(t, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.JSONEq(t, `{}`, result.Content[0].Text)
}

func TestCallToolPanicIsReportedInBand(t *testing.T) {
	resp := call(t, newTestServer(t), `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"boom"}}`)
	require.Nil(t, resp.Error)

	var result callResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].Text, "boom")
	assert.NotContains(t, result.Content[0].Text, "kaboom")
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		code protocol.ErrorCode
		id   interface{}
	}{
		{"parse error", `{"jsonrpc":"2.0",`, protocol.CodeParseError, nil},
		{"not an object", `"hello"`, protocol.CodeInvalidRequest, nil},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"ping"}`, protocol.CodeInvalidRequest, float64(1)},
		{"missing method", `{"jsonrpc":"2.0","id":1}`, protocol.CodeInvalidRequest, float64(1)},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, protocol.CodeMethodNotFound, float64(1)},
		{"unknown tool", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope"}}`, protocol.CodeInvalidParams, float64(1)},
		{"missing tool name", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`, protocol.CodeInvalidParams, float64(1)},
		{"bad params", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":7}}`, protocol.CodeInvalidParams, float64(1)},
		{"empty batch", `[]`, protocol.CodeInvalidRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, newTestServer(t), tt.msg)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.id, resp.ID)
			assert.Nil(t, resp.Result)
		})
	}
}

func TestNotificationsHaveNoResponse(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	assert.Nil(t, srv.HandleMessage(ctx, []byte(`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":3,"reason":"user"}}`)))
	assert.Nil(t, srv.HandleMessage(ctx, []byte(`{"jsonrpc":"2.0","method":"notifications/whatever"}`)))
}

func TestBatch(t *testing.T) {
	srv := newTestServer(t)

	out := srv.HandleMessage(context.Background(), []byte(`[
		{"jsonrpc":"2.0","id":1,"method":"ping"},
		{"jsonrpc":"2.0","method":"notifications/initialized"},
		{"jsonrpc":"2.0","id":2,"method":"nope"}
	]`))
	require.NotNil(t, out)

	var responses []rpcResponse
	require.NoError(t, json.Unmarshal(out, &responses))
	require.Len(t, responses, 2)
	assert.Equal(t, float64(1), responses[0].ID)
	assert.Nil(t, responses[0].Error)
	assert.Equal(t, float64(2), responses[1].ID)
	require.NotNil(t, responses[1].Error)
	assert.Equal(t, protocol.CodeMethodNotFound, responses[1].Error.Code)

	assert.Nil(t, srv.HandleMessage(context.Background(), []byte(`[{"jsonrpc":"2.0","method":"notifications/initialized"}]`)))
}
