// Package httpgw serves the emola server ops over HTTP. Each request is
// forwarded to the server's Unix socket and the framed response is written
// back as JSON.
package httpgw

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rphilander/emola"
)

// MaxBody bounds the size of an expression posted to /eval.
const MaxBody = 1 << 20

type Gateway struct {
	sockPath string
	timeout  time.Duration

	mu   sync.Mutex // serializes use of conn
	conn net.Conn
}

func New(sockPath string) *Gateway {
	return &Gateway{sockPath: sockPath, timeout: 30 * time.Second}
}

// Handler routes:
//
//	POST /eval       body is the expression source
//	GET  /bindings
//	GET  /traces?n=N
//	POST /clear
//	GET  /           server manual
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /eval", g.handleEval)
	mux.HandleFunc("GET /bindings", g.forward("bindings"))
	mux.HandleFunc("GET /traces", g.handleTraces)
	mux.HandleFunc("POST /clear", g.forward("clear"))
	mux.HandleFunc("GET /{$}", g.forward(""))
	return mux
}

func (g *Gateway) handleEval(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	g.respond(w, map[string]any{"op": "eval", "expr": string(body)})
}

func (g *Gateway) handleTraces(w http.ResponseWriter, r *http.Request) {
	msg := map[string]any{"op": "traces"}
	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "n must be an integer", http.StatusBadRequest)
			return
		}
		msg["n"] = n
	}
	g.respond(w, msg)
}

func (g *Gateway) forward(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg := map[string]any{}
		if op != "" {
			msg["op"] = op
		}
		g.respond(w, msg)
	}
}

func (g *Gateway) respond(w http.ResponseWriter, msg map[string]any) {
	resp, err := g.Send(msg)
	if err != nil {
		log.Printf("forward %v: %v", msg["op"], err)
		http.Error(w, "failed to reach emola server", http.StatusBadGateway)
		return
	}
	status := http.StatusOK
	if ok, _ := resp["ok"].(bool); !ok {
		status = http.StatusUnprocessableEntity
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Send forwards one message, dialing the socket on first use. A write that
// fails on a cached connection is retried once on a fresh one; a failed read
// is not, since the server may already have evaluated the request.
func (g *Gateway) Send(msg map[string]any) (map[string]any, error) {
	msg["id"] = uuid.NewString()

	g.mu.Lock()
	defer g.mu.Unlock()

	reused := g.conn != nil
	resp, written, err := g.roundTrip(msg)
	if err == nil {
		return resp, nil
	}
	g.drop()
	if !reused || written {
		return nil, err
	}
	resp, _, err = g.roundTrip(msg)
	if err != nil {
		g.drop()
	}
	return resp, err
}

func (g *Gateway) roundTrip(msg map[string]any) (resp map[string]any, written bool, err error) {
	if g.conn == nil {
		conn, err := net.Dial("unix", g.sockPath)
		if err != nil {
			return nil, false, fmt.Errorf("connect: %w", err)
		}
		g.conn = conn
	}
	g.conn.SetDeadline(time.Now().Add(g.timeout))
	if err := emola.WriteMsg(g.conn, msg); err != nil {
		return nil, false, err
	}
	resp, err = emola.ReadMsg(g.conn)
	if err != nil {
		return nil, true, err
	}
	if resp["id"] != msg["id"] {
		return nil, true, fmt.Errorf("response id %v does not match %v", resp["id"], msg["id"])
	}
	return resp, true, nil
}

func (g *Gateway) drop() {
	if g.conn != nil {
		g.conn.Close()
		g.conn = nil
	}
}

// Close releases the socket connection.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.drop()
	return nil
}
