package server_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/iotmcp/filtertools"
	"github.com/localrivet/iotmcp/protocol"
	"github.com/localrivet/iotmcp/server"
	"github.com/localrivet/iotmcp/transport/stdio"
)

type client struct {
	t   *testing.T
	in  *io.PipeWriter
	out *bufio.Reader
}

func (c *client) send(msg string) {
	c.t.Helper()
	_, err := c.in.Write([]byte(msg + "\n"))
	require.NoError(c.t, err)
}

func (c *client) receive() map[string]interface{} {
	c.t.Helper()
	line, err := c.out.ReadBytes('\n')
	require.NoError(c.t, err)
	var resp map[string]interface{}
	require.NoError(c.t, json.Unmarshal(line, &resp))
	return resp
}

// toolText returns the text of the single content item of a tools/call result.
func toolText(t *testing.T, resp map[string]interface{}) (string, bool) {
	t.Helper()
	result, ok := resp["result"].(map[string]interface{})
	require.True(t, ok, "no result in %v", resp)
	content := result["content"].([]interface{})
	require.Len(t, content, 1)
	isError, _ := result["isError"].(bool)
	return content[0].(map[string]interface{})["text"].(string), isError
}

func TestServeOverStdio(t *testing.T) {
	clientIn, serverIn := io.Pipe()
	serverOut, clientOut := io.Pipe()

	srv := server.NewServer("iotmcp", server.WithVersion("test"))
	tools, err := filtertools.New(nil, 4)
	require.NoError(t, err)
	require.NoError(t, tools.Register(srv))

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(context.Background(), stdio.NewStdioTransportWithReadWriter(clientIn, clientOut, nil))
	}()

	c := &client{t: t, in: serverIn, out: bufio.NewReader(serverOut)}

	c.send(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","clientInfo":{"name":"agent","version":"1"}}}`)
	resp := c.receive()
	assert.Equal(t, float64(1), resp["id"])
	assert.Equal(t, protocol.CurrentProtocolVersion, resp["result"].(map[string]interface{})["protocolVersion"])

	c.send(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)

	c.send(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	resp = c.receive()
	assert.Equal(t, float64(2), resp["id"])
	listed := resp["result"].(map[string]interface{})["tools"].([]interface{})
	require.Len(t, listed, 2)
	assert.Equal(t, filtertools.DecodeToolName, listed[0].(map[string]interface{})["name"])

	c.send(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"decode_key_filter","arguments":{"keyType":"ATTRIBUTE","key":"temperature","predicateType":"NUMERIC","operation":"GREATER","defaultValue":30}}}`)
	resp = c.receive()
	assert.Equal(t, float64(3), resp["id"])
	decoded, isError := toolText(t, resp)
	require.False(t, isError, decoded)
	assert.JSONEq(t, `{"key":{"type":"ATTRIBUTE","key":"temperature"},"valueType":null,
		"predicate":{"type":"NUMERIC","operation":"GREATER","value":{"defaultValue":30,"userValue":null,"dynamicValue":null}}}`, decoded)

	c.send(`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"encode_key_filter","arguments":{"keyFilter":` + decoded + `}}}`)
	resp = c.receive()
	encoded, isError := toolText(t, resp)
	require.False(t, isError, encoded)
	assert.JSONEq(t, `{"keyType":"ATTRIBUTE","key":"temperature","predicateType":"NUMERIC","operation":"GREATER","defaultValue":30}`, encoded)

	c.send(`not json`)
	resp = c.receive()
	assert.Nil(t, resp["id"])
	assert.Equal(t, float64(protocol.CodeParseError), resp["error"].(map[string]interface{})["code"])

	require.NoError(t, serverIn.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after the client closed its stream")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	clientIn, serverIn := io.Pipe()
	defer serverIn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.NewServer("iotmcp").Serve(ctx, stdio.NewStdioTransportWithReadWriter(clientIn, io.Discard, nil))
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}
