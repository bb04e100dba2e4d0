package mcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/uosnotice/programrank/internal/service"
)

// Server implements an MCP server over stdio
type Server struct {
	svc      *service.Service
	version  string
	logger   zerolog.Logger
	handlers map[string]ToolHandler
}

// ToolHandler is a function that handles a tool call
type ToolHandler func(ctx context.Context, params json.RawMessage) (any, error)

// JSON-RPC 2.0 error codes
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// JSON-RPC 2.0 types
type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type initializeResult struct {
	ProtocolVersion string `json:"protocolVersion"`
	Capabilities    struct {
		Tools     struct{} `json:"tools"`
		Resources struct{} `json:"resources"`
	} `json:"capabilities"`
	ServerInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
}

type toolsListResult struct {
	Tools []Tool `json:"tools"`
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type callToolResult struct {
	Content []contentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type contentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// New creates a new MCP server
func New(svc *service.Service, version string, logger zerolog.Logger) *Server {
	s := &Server{
		svc:      svc,
		version:  version,
		logger:   logger,
		handlers: make(map[string]ToolHandler),
	}
	s.registerHandlers()
	return s
}

// Start runs the MCP server on stdio
func (s *Server) Start(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC message per line from r and writes responses to w
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			if response := s.handleMessage(ctx, line); response != nil {
				output, merr := json.Marshal(response)
				if merr != nil {
					s.logger.Error().Err(merr).Msg("failed to marshal MCP response")
				} else if _, werr := fmt.Fprintln(w, string(output)); werr != nil {
					return fmt.Errorf("write error: %w", werr)
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		}
	}
}

func reply(id any, result any) *jsonRPCResponse {
	return &jsonRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func replyError(id any, code int, message string) *jsonRPCResponse {
	return &jsonRPCResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}}
}

// toolText renders a tool result as the text of a single content item
func toolText(result any) callToolResult {
	if str, ok := result.(string); ok {
		return callToolResult{Content: []contentItem{{Type: "text", Text: str}}}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return toolError(fmt.Errorf("failed to encode result: %w", err))
	}
	return callToolResult{Content: []contentItem{{Type: "text", Text: string(data)}}}
}

func toolError(err error) callToolResult {
	return callToolResult{Content: []contentItem{{Type: "text", Text: err.Error()}}, IsError: true}
}

func (s *Server) handleMessage(ctx context.Context, msg string) *jsonRPCResponse {
	var req jsonRPCRequest
	if err := json.Unmarshal([]byte(msg), &req); err != nil {
		return replyError(nil, codeParseError, "Parse error")
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "initialized":
		// Notification, no response
		return nil
	case "tools/list":
		return reply(req.ID, toolsListResult{Tools: ToolDefinitions})
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "resources/list":
		return reply(req.ID, resourcesListResult{Resources: ResourceDefinitions})
	case "resources/read":
		return s.handleResourcesRead(ctx, req)
	default:
		return replyError(req.ID, codeMethodNotFound, "Method not found")
	}
}

func (s *Server) handleInitialize(req jsonRPCRequest) *jsonRPCResponse {
	result := initializeResult{
		ProtocolVersion: "2024-11-05",
	}
	result.ServerInfo.Name = "programrank"
	result.ServerInfo.Version = s.version
	return reply(req.ID, result)
}

func (s *Server) handleToolsCall(ctx context.Context, req jsonRPCRequest) *jsonRPCResponse {
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return replyError(req.ID, codeInvalidParams, "Invalid params")
	}

	handler, ok := s.handlers[params.Name]
	if !ok {
		return replyError(req.ID, codeInvalidParams, fmt.Sprintf("Unknown tool: %s", params.Name))
	}

	result, err := handler(ctx, params.Arguments)
	if err != nil {
		s.logger.Debug().Err(err).Str("tool", params.Name).Msg("MCP tool failed")
		return reply(req.ID, toolError(err))
	}
	return reply(req.ID, toolText(result))
}

func (s *Server) handleResourcesRead(ctx context.Context, req jsonRPCRequest) *jsonRPCResponse {
	var params readResourceParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return replyError(req.ID, codeInvalidParams, "Invalid params")
	}

	text, err := s.handleReadResource(ctx, params.URI)
	if err != nil {
		return replyError(req.ID, codeInvalidParams, err.Error())
	}

	return reply(req.ID, readResourceResult{
		Contents: []resourceContent{{
			URI:      params.URI,
			MimeType: resourceMimeType(params.URI),
			Text:     text,
		}},
	})
}
