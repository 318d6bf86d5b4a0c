package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/rphilander/emola"
)

const usageText = `usage:
  emola-cli eval EXPR...     evaluate EXPR (arguments are joined with spaces)
  emola-cli bindings         list global bindings
  emola-cli traces [N]       show the N most recent traces (default all)
  emola-cli clear            drop all bindings and the definition log
  emola-cli manual           print the server manual
  emola-cli -                read one raw JSON request from stdin

The server socket is $EMOLA_SOCK (default %s).
`

func main() {
	cfg, err := emola.LoadConfig(os.Getenv("EMOLA_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	msg, err := buildRequest(os.Args[1:], os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emola-cli: %v\n\n", err)
		fmt.Fprintf(os.Stderr, usageText, cfg.SockPath)
		os.Exit(2)
	}

	resp, err := send(cfg.SockPath, msg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emola-cli: %v\n", err)
		os.Exit(1)
	}

	ok, _ := resp["ok"].(bool)
	if !ok {
		fmt.Fprintln(os.Stderr, formatError(resp))
		os.Exit(1)
	}
	out, err := formatResponse(resp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "format response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out)
}

// buildRequest turns command-line arguments into a server request. "-"
// reads a raw JSON request from stdin.
func buildRequest(args []string, stdin io.Reader) (map[string]any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing command")
	}
	cmd, rest := args[0], args[1:]

	var msg map[string]any
	switch cmd {
	case "eval":
		if len(rest) == 0 {
			return nil, fmt.Errorf("eval: missing expression")
		}
		msg = map[string]any{"op": "eval", "expr": strings.Join(rest, " ")}
	case "bindings", "clear":
		msg = map[string]any{"op": cmd}
	case "traces":
		msg = map[string]any{"op": "traces"}
		if len(rest) > 0 {
			n, err := strconv.Atoi(rest[0])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("traces: %q is not a count", rest[0])
			}
			msg["n"] = n
		}
	case "manual":
		msg = map[string]any{}
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		if msg == nil {
			return nil, fmt.Errorf("request must be a JSON object")
		}
	default:
		return nil, fmt.Errorf("unknown command %q", cmd)
	}

	if _, ok := msg["id"]; !ok {
		msg["id"] = emola.NextID()
	}
	return msg, nil
}

func send(sockPath string, msg map[string]any) (map[string]any, error) {
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if err := emola.WriteMsg(conn, msg); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	resp, err := emola.ReadMsg(conn)
	if err != nil {
		return nil, fmt.Errorf("receive: %w", err)
	}
	return resp, nil
}

// formatResponse prints eval results as their rendered text and everything
// else as indented JSON.
func formatResponse(resp map[string]any) (string, error) {
	if text, ok := resp["text"].(string); ok {
		return text, nil
	}
	out, err := json.MarshalIndent(resp["value"], "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func formatError(resp map[string]any) string {
	msg, _ := resp["error"].(string)
	if msg == "" {
		msg = "unknown error"
	}
	if kind, ok := resp["error_kind"].(string); ok && !strings.HasPrefix(msg, kind) {
		return kind + ": " + msg
	}
	return msg
}
