package emola

import (
	"fmt"
	"io"
	"log"
	"net"
	"os"
)

// Version is reported by the server manual and the CLI.
const Version = "0.3.0"

// Server exposes a Session over a Unix socket. Every request goes through a
// single actor goroutine that owns the session, so evaluation stays
// sequential no matter how many clients are connected.
type Server struct {
	session  *Session
	requests chan serverRequest
	done     chan struct{}
	listener net.Listener
}

type serverRequest struct {
	msg      map[string]any
	response chan map[string]any
}

// NewServer listens on sockPath, removing a stale socket file first.
func NewServer(session *Session, sockPath string) (*Server, error) {
	os.Remove(sockPath)

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return &Server{
		session:  session,
		requests: make(chan serverRequest, 64),
		done:     make(chan struct{}),
		listener: listener,
	}, nil
}

// Addr returns the socket address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Run starts the actor goroutine and accepts connections. Blocks until
// Shutdown closes the listener.
func (s *Server) Run() {
	go s.actorLoop()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConnection(conn)
	}
}

// Shutdown stops accepting connections and stops the actor. Requests still
// in flight get a shutdown error.
func (s *Server) Shutdown() {
	s.listener.Close()
	close(s.done)
}

// actorLoop is the single goroutine that touches the session.
func (s *Server) actorLoop() {
	for {
		select {
		case req := <-s.requests:
			req.response <- s.handleRequest(req.msg)
		case <-s.done:
			return
		}
	}
}

func (s *Server) sendToActor(msg map[string]any) map[string]any {
	resp := make(chan map[string]any, 1)
	id, _ := msg["id"].(string)
	select {
	case s.requests <- serverRequest{msg: msg, response: resp}:
	case <-s.done:
		return errorResponse(id, "server shutting down")
	}
	select {
	case r := <-resp:
		return r
	case <-s.done:
		return errorResponse(id, "server shutting down")
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	for {
		msg, err := ReadMsg(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("read client message: %v", err)
			}
			return
		}

		resp := s.sendToActor(msg)
		if err := WriteMsg(conn, resp); err != nil {
			log.Printf("write client response: %v", err)
			return
		}
	}
}

func (s *Server) handleRequest(msg map[string]any) map[string]any {
	id, _ := msg["id"].(string)

	op, _ := msg["op"].(string)
	if op == "" {
		return s.manual(id)
	}

	switch op {
	case "eval":
		return s.handleEval(id, msg)
	case "bindings":
		return s.handleBindings(id)
	case "traces":
		return s.handleTraces(id, msg)
	case "clear":
		return s.handleClear(id)
	default:
		return errorResponse(id, fmt.Sprintf("unknown op: %s", op))
	}
}

func (s *Server) manual(id string) map[string]any {
	return map[string]any{
		"id": id,
		"ok": true,
		"value": map[string]any{
			"name":    "emola",
			"version": Version,
			"ops": map[string]any{
				"eval":     "Evaluate one expression in the global scope. Params: expr (string)",
				"bindings": "List global bindings.",
				"traces":   "Return recent evaluation traces. Params: n (int, optional)",
				"clear":    "Drop all global bindings and truncate the definition log.",
			},
			"forms": []any{"do", "if", "=", "+", "-", "*", "/", "fn", "def"},
		},
	}
}

func (s *Server) handleEval(id string, msg map[string]any) map[string]any {
	expr, ok := msg["expr"].(string)
	if !ok {
		return errorResponse(id, "eval: missing 'expr' string")
	}

	val, err := s.session.Eval(expr)
	if err != nil {
		resp := errorResponse(id, err.Error())
		if kind, ok := KindOf(err); ok {
			resp["error_kind"] = kind.String()
		}
		return resp
	}

	resp := map[string]any{
		"id":   id,
		"ok":   true,
		"kind": val.KindName(),
		"text": val.Repr(),
	}
	if goVal, err := ValueToGo(val); err == nil {
		resp["value"] = goVal
	}
	return resp
}

func (s *Server) handleBindings(id string) map[string]any {
	bindings := s.session.Bindings()
	out := make([]any, len(bindings))
	for i, b := range bindings {
		out[i] = map[string]any{
			"name": b.Name,
			"kind": b.Value.KindName(),
			"text": b.Value.Repr(),
		}
	}
	return map[string]any{"id": id, "ok": true, "value": out}
}

func (s *Server) handleTraces(id string, msg map[string]any) map[string]any {
	n := 0
	if raw, exists := msg["n"]; exists {
		f, ok := raw.(float64)
		if !ok {
			return errorResponse(id, "traces: 'n' must be a number")
		}
		n = int(f)
	}
	traces := s.session.Traces(n)
	out := make([]any, len(traces))
	for i := range traces {
		out[i] = traces[i].ToGo()
	}
	return map[string]any{"id": id, "ok": true, "value": out}
}

func (s *Server) handleClear(id string) map[string]any {
	if err := s.session.Clear(); err != nil {
		return errorResponse(id, err.Error())
	}
	return map[string]any{"id": id, "ok": true, "value": "cleared"}
}

func errorResponse(id, errMsg string) map[string]any {
	return map[string]any{"id": id, "ok": false, "error": errMsg}
}
