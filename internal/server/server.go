// Package server pushes diagnostics to editors over socket.io.
//
// A client emits "lint" with a {filename, text} payload and receives a
// "diagnostics" event carrying a lint.FileReport for that document. When
// the schema changes, every client receives a "schema" event with the new
// version so it can request fresh diagnostics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/pzscripts/internal/ctxlog"
	"github.com/specialistvlad/pzscripts/internal/document"
	"github.com/specialistvlad/pzscripts/internal/lint"
	"github.com/specialistvlad/pzscripts/internal/schema"
	"github.com/zishang520/socket.io/v2/socket"
)

// Event names of the protocol.
const (
	EventLint        = "lint"
	EventDiagnostics = "diagnostics"
	EventSchema      = "schema"
	EventError       = "lint_error"
)

// LintRequest is the payload of a "lint" event.
type LintRequest struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// SchemaNotice is the payload of a "schema" event.
type SchemaNotice struct {
	Version string `json:"version"`
	Source  string `json:"source"`
}

// Server serves the socket.io endpoint and a health check.
type Server struct {
	ctx    context.Context
	linter *lint.Linter
	io     *socket.Server
	mux    *http.ServeMux
}

// New creates a server that lints with linter. ctx carries the logger and
// bounds the lifetime of the socket.io handlers.
func New(ctx context.Context, linter *lint.Linter) *Server {
	s := &Server{
		ctx:    ctx,
		linter: linter,
		io:     socket.NewServer(nil, nil),
		mux:    http.NewServeMux(),
	}
	s.mux.Handle("/socket.io/", s.io.ServeHandler(nil))
	s.mux.HandleFunc("/health", s.healthHandler)
	s.io.On("connection", func(clients ...any) {
		s.onConnection(clients[0].(*socket.Socket))
	})
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(s.ctx).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) onConnection(client *socket.Socket) {
	logger := ctxlog.FromContext(s.ctx).With("sid", client.Id())
	logger.Info("Client connected.")

	client.On(EventLint, func(data ...any) {
		req, err := decodeRequest(data)
		if err != nil {
			logger.Warn("Rejected lint request.", "error", err)
			client.Emit(EventError, map[string]string{"error": err.Error()})
			return
		}
		res := s.linter.Document(document.New(req.Filename, req.Text))
		logger.Debug("Document linted.", "filename", req.Filename, "diagnostics", len(res.Diagnostics))
		client.Emit(EventDiagnostics, lint.NewFileReport(res))
	})
	client.On("disconnect", func(reason ...any) {
		logger.Info("Client disconnected.", "reason", reason)
	})
}

func decodeRequest(data []any) (LintRequest, error) {
	var req LintRequest
	if len(data) == 0 {
		return req, errors.New("missing payload")
	}
	raw, err := json.Marshal(data[0])
	if err != nil {
		return req, fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("invalid payload: %w", err)
	}
	if req.Filename == "" {
		return req, errors.New("payload has no filename")
	}
	return req, nil
}

// NotifySchema tells every connected client that the schema changed.
func (s *Server) NotifySchema(snap *schema.Snapshot) {
	ctxlog.FromContext(s.ctx).Info("Broadcasting schema change.", "source", snap.Source())
	s.io.Emit(EventSchema, SchemaNotice{Version: snap.Version(), Source: snap.Source()})
}

// Serve accepts connections on ln until ctx is cancelled, then shuts the
// server down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := ctxlog.FromContext(ctx)
	httpServer := &http.Server{Handler: s.mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🩺 Diagnostics server starting", "address", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("diagnostics server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down diagnostics server...")
	s.io.Close(nil)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Diagnostics server shutdown failed", "error", err)
		return err
	}
	logger.Debug("Diagnostics server shut down gracefully.")
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
