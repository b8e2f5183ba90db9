// Package server provides the MCP server implementation: a tool registry and
// the JSON-RPC message handling for initialize, ping, tools/list and
// tools/call. It is independent of the transport.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/localrivet/iotmcp/logx"
	"github.com/localrivet/iotmcp/protocol"
	"github.com/localrivet/iotmcp/util/tool"
)

// ToolHandlerFunc defines the signature for functions that handle tool execution.
type ToolHandlerFunc = tool.Handler

// Server represents the core MCP server logic, independent of transport.
type Server struct {
	serverName         string
	serverVersion      string
	serverInstructions string
	logger             logx.Logger

	// Registry
	toolRegistry map[string]protocol.Tool
	toolHandlers map[string]ToolHandlerFunc
	toolOrder    []string
	registryMu   sync.RWMutex

	// Client state recorded by initialize
	clientInfo        protocol.Implementation
	negotiatedVersion string
	initialized       bool
	stateMu           sync.RWMutex
}

// ServerOption defines a function signature for configuring a Server.
type ServerOption func(*Server)

// WithLogger provides an option to set a custom logger.
func WithLogger(logger logx.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion sets the version reported in serverInfo.
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		s.serverVersion = version
	}
}

// WithInstructions sets the server instructions string returned during initialization.
func WithInstructions(instructions string) ServerOption {
	return func(s *Server) {
		s.serverInstructions = instructions
	}
}

// NewServer creates a new core MCP Server logic instance with the provided options.
func NewServer(serverName string, opts ...ServerOption) *Server {
	srv := &Server{
		serverName:    serverName,
		serverVersion: "0.0.0",
		logger:        logx.Nop(),
		toolRegistry:  make(map[string]protocol.Tool),
		toolHandlers:  make(map[string]ToolHandlerFunc),
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.logger = srv.logger.With("component", "server")
	srv.logger.Info("MCP server created", "name", serverName, "version", srv.serverVersion)
	return srv
}

// --- Tool Registry ---

// RegisterTool adds a tool and its handler. Names must be unique and non-empty.
func (s *Server) RegisterTool(t protocol.Tool, handler ToolHandlerFunc) error {
	if t.Name == "" {
		return errors.New("tool name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("tool %q has no handler", t.Name)
	}
	if t.InputSchema.Type == "" {
		t.InputSchema.Type = "object"
	}

	s.registryMu.Lock()
	defer s.registryMu.Unlock()
	if _, exists := s.toolRegistry[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	s.toolRegistry[t.Name] = t
	s.toolHandlers[t.Name] = handler
	s.toolOrder = append(s.toolOrder, t.Name)

	s.logger.Debug("registered tool", "tool", t.Name)
	return nil
}

// AddTool registers a tool.ToolHandler.
func (s *Server) AddTool(t tool.ToolHandler) error {
	return s.RegisterTool(t.Tool(), t.Handler())
}

// Tools returns the registered tools in registration order.
func (s *Server) Tools() []protocol.Tool {
	s.registryMu.RLock()
	defer s.registryMu.RUnlock()
	tools := make([]protocol.Tool, 0, len(s.toolOrder))
	for _, name := range s.toolOrder {
		tools = append(tools, s.toolRegistry[name])
	}
	return tools
}

// --- Message Handling (Called by Transport Layer) ---

// HandleMessage processes one raw JSON-RPC message, a single object or a
// batch array, and returns the encoded response. It returns nil when nothing
// should be sent back (notifications, or a batch of notifications).
func (s *Server) HandleMessage(ctx context.Context, rawMessage []byte) []byte {
	trimmed := bytes.TrimSpace(rawMessage)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return s.handleBatch(ctx, trimmed)
	}
	return s.encode(s.handleSingleMessage(ctx, trimmed))
}

func (s *Server) handleBatch(ctx context.Context, raw []byte) []byte {
	var batch []json.RawMessage
	if err := json.Unmarshal(raw, &batch); err != nil {
		s.logger.Warn("failed to parse batch", "error", err)
		return s.encode(createErrorResponse(nil, protocol.CodeParseError, fmt.Sprintf("Failed to parse batch JSON: %v", err)))
	}
	if len(batch) == 0 {
		return s.encode(createErrorResponse(nil, protocol.CodeInvalidRequest, "Received empty batch request"))
	}

	responses := make([]*protocol.JSONRPCResponse, 0, len(batch))
	for _, msg := range batch {
		if resp := s.handleSingleMessage(ctx, msg); resp != nil {
			responses = append(responses, resp)
		}
	}
	if len(responses) == 0 {
		return nil
	}
	return s.encode(responses)
}

// encode marshals a response or batch. A nil *JSONRPCResponse yields nil.
func (s *Server) encode(v interface{}) []byte {
	if resp, ok := v.(*protocol.JSONRPCResponse); ok && resp == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		data, _ = json.Marshal(createErrorResponse(nil, protocol.CodeInternalError, "Failed to marshal response"))
	}
	return data
}

// handleSingleMessage processes a single JSON-RPC request or notification object.
func (s *Server) handleSingleMessage(ctx context.Context, rawMessage []byte) *protocol.JSONRPCResponse {
	var req protocol.JSONRPCRequest
	if err := json.Unmarshal(rawMessage, &req); err != nil {
		if !json.Valid(rawMessage) {
			s.logger.Warn("failed to parse message", "error", err)
			return createErrorResponse(nil, protocol.CodeParseError, fmt.Sprintf("Failed to parse JSON: %v", err))
		}
		return createErrorResponse(nil, protocol.CodeInvalidRequest, fmt.Sprintf("Invalid request: %v", err))
	}

	if req.JSONRPC != "2.0" {
		return createErrorResponse(req.ID, protocol.CodeInvalidRequest, "Invalid jsonrpc version")
	}
	if req.Method == "" {
		return createErrorResponse(req.ID, protocol.CodeInvalidRequest, "Invalid message: method is required")
	}

	if req.IsNotification() {
		s.handleNotification(req.Method, req.Params)
		return nil
	}

	s.logger.Debug("handling request", "method", req.Method, "id", req.ID)
	result, err := s.handleRequest(ctx, req.Method, req.Params)
	if err != nil {
		var mcpErr *protocol.MCPError
		if errors.As(err, &mcpErr) {
			return createErrorResponse(req.ID, mcpErr.Code, mcpErr.Message)
		}
		s.logger.Error("request failed", "method", req.Method, "error", err)
		return createErrorResponse(req.ID, protocol.CodeInternalError, err.Error())
	}
	return protocol.NewSuccessResponse(req.ID, result)
}

func (s *Server) handleRequest(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	switch method {
	case protocol.MethodInitialize:
		return s.handleInitialize(params)
	case protocol.MethodPing:
		return struct{}{}, nil
	case protocol.MethodListTools:
		return s.handleListTools(params)
	case protocol.MethodCallTool:
		return s.handleCallTool(ctx, params)
	default:
		return nil, protocol.NewMethodNotFoundError(method)
	}
}

func (s *Server) handleNotification(method string, params json.RawMessage) {
	switch method {
	case protocol.MethodInitialized:
		s.stateMu.Lock()
		s.initialized = true
		s.stateMu.Unlock()
		s.logger.Info("client initialized")
	case protocol.MethodCancelled:
		// Requests are handled synchronously, so there is nothing left to cancel.
		var p protocol.CancelledParams
		_ = protocol.UnmarshalParams(params, &p)
		s.logger.Debug("cancellation received", "request_id", p.RequestID, "reason", p.Reason)
	default:
		s.logger.Debug("ignoring notification", "method", method)
	}
}

// --- Initialization Handling ---

func (s *Server) handleInitialize(params json.RawMessage) (*protocol.InitializeResult, error) {
	var initParams protocol.InitializeRequestParams
	if err := protocol.UnmarshalParams(params, &initParams); err != nil {
		return nil, protocol.NewInvalidParamsError(fmt.Sprintf("Failed to parse initialize params: %v", err))
	}

	// Echo a supported version; otherwise offer ours and let the client decide.
	negotiated := protocol.CurrentProtocolVersion
	for _, v := range protocol.SupportedProtocolVersions {
		if initParams.ProtocolVersion == v {
			negotiated = v
			break
		}
	}

	s.stateMu.Lock()
	s.clientInfo = initParams.ClientInfo
	s.negotiatedVersion = negotiated
	s.stateMu.Unlock()

	s.logger.Info("initialize",
		"client", initParams.ClientInfo.Name,
		"client_version", initParams.ClientInfo.Version,
		"requested_version", initParams.ProtocolVersion,
		"negotiated_version", negotiated,
	)

	return &protocol.InitializeResult{
		ProtocolVersion: negotiated,
		Capabilities: protocol.ServerCapabilities{
			Tools: &protocol.ToolsCapability{},
		},
		ServerInfo: protocol.Implementation{
			Name:    s.serverName,
			Version: s.serverVersion,
		},
		Instructions: s.serverInstructions,
	}, nil
}

// ClientInfo returns the client implementation and protocol version recorded
// by initialize, and whether the initialized notification has arrived.
func (s *Server) ClientInfo() (protocol.Implementation, string, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.clientInfo, s.negotiatedVersion, s.initialized
}

// --- Tools ---

func (s *Server) handleListTools(params json.RawMessage) (*protocol.ListToolsResult, error) {
	var listParams protocol.ListToolsRequestParams
	if err := protocol.UnmarshalParams(params, &listParams); err != nil {
		return nil, protocol.NewInvalidParamsError(fmt.Sprintf("Failed to parse tools/list params: %v", err))
	}
	// All tools fit in one page; a cursor is accepted and ignored.
	return &protocol.ListToolsResult{Tools: s.Tools()}, nil
}

func (s *Server) handleCallTool(ctx context.Context, params json.RawMessage) (*protocol.CallToolResult, error) {
	var callParams protocol.CallToolParams
	if err := protocol.UnmarshalParams(params, &callParams); err != nil {
		return nil, protocol.NewInvalidParamsError(fmt.Sprintf("Failed to parse tools/call params: %v", err))
	}
	if callParams.Name == "" {
		return nil, protocol.NewInvalidParamsError("Tool name is required")
	}

	s.registryMu.RLock()
	handler, ok := s.toolHandlers[callParams.Name]
	s.registryMu.RUnlock()
	if !ok {
		return nil, protocol.NewToolNotFoundError(callParams.Name)
	}

	content, isError := s.executeTool(ctx, callParams.Name, handler, callParams.Arguments)
	if content == nil {
		content = []protocol.Content{}
	}
	return &protocol.CallToolResult{Content: content, IsError: isError}, nil
}

// executeTool runs handler, turning a panic into an in-band tool error.
func (s *Server) executeTool(ctx context.Context, name string, handler ToolHandlerFunc, args map[string]interface{}) (content []protocol.Content, isError bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool panicked", "tool", name, "panic", fmt.Sprint(r))
			content = []protocol.Content{protocol.NewTextContent(fmt.Sprintf("Tool %s failed: internal error", name))}
			isError = true
		}
	}()
	if args == nil {
		args = map[string]interface{}{}
	}
	return handler(ctx, args)
}

func createErrorResponse(id interface{}, code protocol.ErrorCode, message string) *protocol.JSONRPCResponse {
	return protocol.NewErrorResponse(id, code, message, nil)
}
