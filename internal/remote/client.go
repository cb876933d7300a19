// Package remote sends documents to a running diagnostics server and
// collects the reports it sends back.
package remote

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/pzscripts/internal/ctxlog"
	"github.com/specialistvlad/pzscripts/internal/document"
	"github.com/specialistvlad/pzscripts/internal/lint"
	"github.com/specialistvlad/pzscripts/internal/server"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Options configures a remote lint session.
type Options struct {
	// URL is the server address, e.g. "http://localhost:7070/socket.io/".
	URL string
	// Timeout bounds the whole session: connecting and every round trip.
	Timeout            time.Duration
	InsecureSkipVerify bool
}

type reply struct {
	report lint.FileReport
	err    error
}

// Lint sends each document to the server in turn and returns the reports in
// the same order.
func Lint(ctx context.Context, opts Options, docs []*document.Document) ([]lint.FileReport, error) {
	logger := ctxlog.FromContext(ctx).With("url", opts.URL)
	logger.Debug("Remote lint started.", "documents", len(docs))

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	opCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	path := parsedURL.Path
	if path == "" || path == "/" {
		path = "/socket.io/"
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	sopts := socket.DefaultOptions()
	sopts.SetPath(path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket("/", sopts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	var connected atomic.Bool
	ready := make(chan error, 1)
	replies := make(chan reply, 1)

	io.On(types.EventName("connect"), func(...any) {
		if connected.CompareAndSwap(false, true) {
			logger.Debug("Connected to diagnostics server.", "sid", io.Id())
			ready <- nil
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connection refused")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case ready <- err:
		default:
		}
	})
	io.On(types.EventName(server.EventDiagnostics), func(data ...any) {
		replies <- decodeReply(data)
	})
	io.On(types.EventName(server.EventError), func(data ...any) {
		msg := "server rejected the document"
		if len(data) > 0 {
			if m, ok := data[0].(map[string]any); ok {
				if s, ok := m["error"].(string); ok {
					msg = s
				}
			}
		}
		replies <- reply{err: errors.New(msg)}
	})

	io.Connect()
	select {
	case <-opCtx.Done():
		return nil, fmt.Errorf("timed out while waiting for initial connection: %w", opCtx.Err())
	case err := <-ready:
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", opts.URL, err)
		}
	}

	reports := make([]lint.FileReport, 0, len(docs))
	for _, doc := range docs {
		io.Emit(server.EventLint, server.LintRequest{Filename: doc.Name(), Text: doc.Text()})
		select {
		case <-opCtx.Done():
			return reports, fmt.Errorf("timed out waiting for diagnostics of %s: %w", doc.Name(), opCtx.Err())
		case r := <-replies:
			if r.err != nil {
				return reports, fmt.Errorf("lint %s: %w", doc.Name(), r.err)
			}
			if r.report.Filename != doc.Name() {
				return reports, fmt.Errorf("lint %s: server answered for %s", doc.Name(), r.report.Filename)
			}
			logger.Debug("Received diagnostics.", "filename", doc.Name(), "count", len(r.report.Diagnostics))
			reports = append(reports, r.report)
		}
	}
	return reports, nil
}

func decodeReply(data []any) reply {
	if len(data) == 0 {
		return reply{err: errors.New("empty diagnostics event")}
	}
	raw, err := json.Marshal(data[0])
	if err != nil {
		return reply{err: fmt.Errorf("failed to encode reply: %w", err)}
	}
	var rep lint.FileReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		return reply{err: fmt.Errorf("invalid diagnostics payload: %w", err)}
	}
	return reply{report: rep}
}
