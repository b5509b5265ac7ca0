package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/memopad/internal/apperr"
)

// inbound is the part of a JSON-RPC request needed to route it.
type inbound struct {
	ID     *mcp.RequestId  `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// HandleMessage answers one JSON-RPC message. Calls naming an unknown tool
// or prompt and resource reads are answered here so their faults keep
// their own error codes; everything else goes to the MCP router.
func (s *Server) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	if resp, ok := s.preDispatch(ctx, raw); ok {
		return resp
	}
	return s.mcp.HandleMessage(ctx, raw)
}

func (s *Server) preDispatch(ctx context.Context, raw json.RawMessage) (mcp.JSONRPCMessage, bool) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil || msg.ID == nil {
		return nil, false
	}

	switch mcp.MCPMethod(msg.Method) {
	case mcp.MethodToolsCall:
		var p struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return nil, false
		}
		if _, ok := s.handlers[p.Name]; !ok {
			return faultResponse(*msg.ID, apperr.NewFault(apperr.MethodNotFound, "unknown tool: %s", p.Name)), true
		}

	case mcp.MethodPromptsGet:
		var p struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return nil, false
		}
		if _, ok := s.prompts[p.Name]; !ok {
			return faultResponse(*msg.ID, apperr.NewFault(apperr.MethodNotFound, "unknown prompt: %s", p.Name)), true
		}

	case mcp.MethodResourcesRead:
		var p struct {
			URI string `json:"uri"`
		}
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return nil, false
		}
		contents, err := s.ReadResource(ctx, p.URI)
		if err != nil {
			fault, ok := apperr.AsFault(err)
			if !ok {
				fault = apperr.WrapFault(apperr.InternalError, err, "failed to read resource %s", p.URI)
			}
			if fault.Err != nil {
				s.logger.Debug("mcp: resource read failed",
					slog.String("uri", p.URI), slog.String("error", fault.Err.Error()))
			}
			return faultResponse(*msg.ID, fault), true
		}
		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      *msg.ID,
			Result:  mcp.ReadResourceResult{Contents: contents},
		}, true
	}
	return nil, false
}

// faultResponse carries only the fault's message; the cause stays in the logs.
func faultResponse(id mcp.RequestId, f *apperr.Fault) mcp.JSONRPCMessage {
	return mcp.NewJSONRPCError(id, f.Code(), f.Message, nil)
}

// Listen serves MCP requests read from in and writes responses to out until
// ctx is cancelled or in is closed. Each line is offered to HandleMessage's
// pre-dispatch first; the rest is fed to the library's stdio server.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	w := &lockedWriter{w: out}
	pr, pw := io.Pipe()
	defer pr.Close()

	go func() {
		pw.CloseWithError(s.route(ctx, in, pw, w))
	}()

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	return stdio.Listen(ctx, pr, w)
}

// route answers pre-dispatched lines on out and forwards all others to next.
func (s *Server) route(ctx context.Context, in io.Reader, next io.Writer, out io.Writer) error {
	r := bufio.NewReader(in)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			if werr := s.routeLine(ctx, line, next, out); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Server) routeLine(ctx context.Context, line []byte, next io.Writer, out io.Writer) error {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) > 0 {
		if resp, ok := s.preDispatch(ctx, trimmed); ok {
			data, err := json.Marshal(resp)
			if err != nil {
				return err
			}
			_, err = out.Write(append(data, '\n'))
			return err
		}
	}
	if line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}
	_, err := next.Write(line)
	return err
}

// lockedWriter serialises writes from the router and the stdio server.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
