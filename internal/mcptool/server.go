package mcptool

import (
	"context"
	"encoding/json"
	"errors"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rzbill/logtap/internal/consumer"
	"github.com/rzbill/logtap/internal/query"
	logpkg "github.com/rzbill/logtap/pkg/log"
)

// Server bridges an MCP session to the stream consumer.
type Server struct {
	consumer *consumer.Consumer
	mcp      *mcpsdk.Server
	logger   logpkg.Logger
}

// New creates the MCP server and registers the get_logs tool.
func New(c *consumer.Consumer, version string, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	s := &Server{
		consumer: c,
		logger:   logger.WithComponent("mcp"),
	}
	srv := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "logtap",
		Version: version,
	}, nil)
	srv.AddTool(&mcpsdk.Tool{
		Name:        "get_logs",
		Description: "Fetch recent log events for a tenant. Origin and topic are auto-selected when unambiguous; on ambiguity the error lists the candidates to pass explicitly.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tenant": map[string]any{"type": "string", "description": "Application identity (required)"},
				"origin": map[string]any{"type": "string", "description": "Host or runtime instance"},
				"topic":  map[string]any{"type": "string", "description": "Log namespace, e.g. console"},
				"limit":  map[string]any{"type": "integer", "description": "Max events to return"},
				"filter": map[string]any{"type": "string", "description": "Case-insensitive substring filter"},
			},
			"required": []any{"tenant"},
		},
	}, s.handleGetLogs)
	s.mcp = srv
	return s
}

// Run serves the MCP session over stdio until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.consumer.Connect(ctx)
	return s.mcp.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect attaches the server to a transport, for tests.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcp.Connect(ctx, t, nil)
}

type getLogsArgs struct {
	Tenant string `json:"tenant"`
	Origin string `json:"origin"`
	Topic  string `json:"topic"`
	Limit  int    `json:"limit"`
	Filter string `json:"filter"`
}

func (s *Server) handleGetLogs(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args getLogsArgs
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return errorResult("invalid arguments: " + err.Error()), nil
		}
	}
	res, err := s.consumer.GetLogs(ctx, consumer.Request{
		Tenant: args.Tenant,
		Origin: args.Origin,
		Topic:  args.Topic,
		Limit:  args.Limit,
		Filter: args.Filter,
	})
	if err != nil {
		// Disambiguation and not-found answers carry the candidate list;
		// surfacing them as tool errors lets the agent retry with the
		// missing parameter.
		var amb *query.AmbiguousError
		var nf *query.NotFoundError
		if errors.As(err, &amb) || errors.As(err, &nf) {
			return errorResult(err.Error()), nil
		}
		s.logger.Warn("get_logs failed", logpkg.Err(err))
		return errorResult("log query failed: " + err.Error()), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: res.Render()}},
	}, nil
}

func errorResult(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}
