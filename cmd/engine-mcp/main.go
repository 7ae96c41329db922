// Command engine-mcp exposes the engine's embedding API as an MCP
// server: a Model Context Protocol client can eval script source,
// parse module source, and drain the job queue against one long-lived
// Context, the same way the teacher's cmd/lci mcp command exposes its
// indexer over stdio. Conventions (tool registration, JSON response
// envelope, graceful-then-forced shutdown) are modeled directly on
// internal/mcp/server.go.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/jsengine/internal/config"
	jsengctx "github.com/standardbeagle/jsengine/internal/context"
	"github.com/standardbeagle/jsengine/internal/value"
)

// Server wraps one mcp.Server and the single Context every tool call
// evaluates against. Spec.md §5 requires one Context per execution
// thread; since MCP requests are handled sequentially over stdio,
// one Context for the process lifetime is the right granularity.
type Server struct {
	server *mcp.Server
	ctx    *jsengctx.Context
}

// NewServer builds and registers every tool against a fresh Context
// constructed from cfg.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "jsengine-mcp-server",
			Version: "0.1.0",
		}, nil),
		ctx: jsengctx.New(cfg),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "eval",
		Description: "Evaluate an ECMAScript script against the server's persistent engine context and return its completion value.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source": {
					Type:        "string",
					Description: "Script source text",
				},
			},
			Required: []string{"source"},
		},
	}, s.handleEval)

	s.server.AddTool(&mcp.Tool{
		Name:        "parse_module",
		Description: "Evaluate module source (import/export accepted, implicitly strict) against the server's persistent engine context.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source": {
					Type:        "string",
					Description: "Module source text",
				},
			},
			Required: []string{"source"},
		},
	}, s.handleParseModule)

	s.server.AddTool(&mcp.Tool{
		Name:        "run_jobs",
		Description: "Drain the engine context's microtask queue (Promise reactions and async continuations queued since the last drain).",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleRunJobs)

	s.server.AddTool(&mcp.Tool{
		Name:        "gc_stats",
		Description: "Run one immediate garbage-collection cycle and report heap statistics.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleGCStats)
}

type evalParams struct {
	Source string `json:"source"`
}

func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(content)}},
	}, nil
}

func createErrorResponse(tool string, err error) (*mcp.CallToolResult, error) {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("%s: %v", tool, err)}},
	}, nil
}

func (s *Server) handleEval(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params evalParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("eval", err)
	}
	result, err := s.ctx.Eval(params.Source)
	if err != nil {
		return createErrorResponse("eval", err)
	}
	return createJSONResponse(map[string]interface{}{
		"type":  result.TypeOf(),
		"value": describeResult(result),
	})
}

func (s *Server) handleParseModule(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params evalParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("parse_module", err)
	}
	result, err := s.ctx.ParseModule(params.Source)
	if err != nil {
		return createErrorResponse("parse_module", err)
	}
	return createJSONResponse(map[string]interface{}{
		"type":  result.TypeOf(),
		"value": describeResult(result),
	})
}

func (s *Server) handleRunJobs(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.ctx.RunJobs(); err != nil {
		return createErrorResponse("run_jobs", err)
	}
	return createJSONResponse(map[string]interface{}{"ok": true})
}

func (s *Server) handleGCStats(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.ctx.Collect()
	return createJSONResponse(map[string]interface{}{
		"collections": stats.Collections,
		"liveCells":   stats.LiveCells,
		"lastFreed":   stats.LastFreed,
	})
}

// describeResult renders a completion value for the JSON envelope;
// script objects are opaque (no structured export), matching how
// eval's host-visible contract is "a JS value happened", not a full
// structural dump.
func describeResult(v value.Value) string {
	switch v.Kind() {
	case value.Undefined:
		return "undefined"
	case value.Null:
		return "null"
	case value.Boolean:
		return fmt.Sprintf("%v", v.AsBool())
	case value.Integer32, value.Float64:
		return fmt.Sprintf("%v", v.AsFloat64())
	case value.String:
		return v.AsString()
	case value.Object_:
		return "[object]"
	default:
		return v.TypeOf()
	}
}

func (s *Server) Start(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func main() {
	cfg, err := config.Load(".jsengine.kdl")
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine-mcp: failed to load config: %v\n", err)
		os.Exit(1)
	}

	srv := NewServer(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "engine-mcp: server exited: %v\n", err)
			os.Exit(1)
		}
	case <-sigCh:
		cancel()
		select {
		case <-errCh:
		case <-time.After(5 * time.Second):
			os.Stdin.Close()
		}
	}
}
