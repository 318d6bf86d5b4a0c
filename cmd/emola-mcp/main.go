package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rphilander/emola"
)

var (
	conn   net.Conn
	connMu sync.Mutex
)

// send sends a request to the emola server and returns the response.
func send(req map[string]any) (map[string]any, error) {
	req["id"] = emola.NextID()
	connMu.Lock()
	defer connMu.Unlock()
	if err := emola.WriteMsg(conn, req); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	resp, err := emola.ReadMsg(conn)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return resp, nil
}

// formatResult turns a server response into an MCP tool result.
func formatResult(resp map[string]any) (*mcp.CallToolResult, error) {
	ok, _ := resp["ok"].(bool)
	if !ok {
		errMsg, _ := resp["error"].(string)
		if errMsg == "" {
			errMsg = "unknown error"
		}
		return mcp.NewToolResultError(errMsg), nil
	}
	if text, isEval := resp["text"].(string); isEval {
		return mcp.NewToolResultText(text), nil
	}
	out, err := json.MarshalIndent(resp["value"], "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := request.RequireString("expr")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := send(map[string]any{"op": "eval", "expr": expr})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func handleBindings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := send(map[string]any{"op": "bindings"})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func handleTraces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := map[string]any{"op": "traces"}
	if n := request.GetInt("n", 0); n > 0 {
		req["n"] = n
	}
	resp, err := send(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func handleClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := send(map[string]any{"op": "clear"})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func main() {
	sockPath := os.Getenv("EMOLA_SOCK")
	if sockPath == "" {
		sockPath = emola.DefaultConfig().SockPath
	}

	var err error
	conn, err = net.Dial("unix", sockPath)
	if err != nil {
		log.Fatalf("connect to %s: %v", sockPath, err)
	}
	defer conn.Close()
	log.Printf("connected to emola server: %s", sockPath)

	s := server.NewMCPServer(
		"emola",
		emola.Version,
		server.WithToolCapabilities(false),
	)

	s.AddTool(
		mcp.NewTool("emola_eval",
			mcp.WithDescription("Evaluate one emola expression in the persistent global scope. Returns the rendered value."),
			mcp.WithString("expr",
				mcp.Required(),
				mcp.Description("Expression to evaluate, e.g. (def add (fn (x y) (+ x y)))"),
			),
		),
		handleEval,
	)

	s.AddTool(
		mcp.NewTool("emola_bindings",
			mcp.WithDescription("List the names bound in the global scope with their rendered values."),
		),
		handleBindings,
	)

	s.AddTool(
		mcp.NewTool("emola_traces",
			mcp.WithDescription("Show recent evaluations with their results or errors."),
			mcp.WithNumber("n",
				mcp.Description("How many of the newest traces to return (default all)"),
			),
		),
		handleTraces,
	)

	s.AddTool(
		mcp.NewTool("emola_clear",
			mcp.WithDescription("Drop all global bindings, truncate the definition log and clear traces."),
		),
		handleClear,
	)

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
