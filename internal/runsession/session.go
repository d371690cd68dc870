// Package runsession implements session manager: it owns the stream
// handler and a single backend, dispatches each incoming request through the
// interceptor pipeline, and manages graceful shutdown on signal or stdin EOF.
package runsession

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"mcpadre.dev/mcpadre/internal/backend"
	"mcpadre.dev/mcpadre/internal/intercept"
	"mcpadre.dev/mcpadre/internal/rpcstream"
)

// GraceWindow bounds how long Stop waits for in-flight dispatches to finish
// before abandoning them.
const GraceWindow = 5 * time.Second

// MaxInFlightStdio is the concurrency bound chosen for stdio backends: the
// safest default is 1 in-flight request per stdio backend unless the backend
// advertises otherwise. HTTP backends, whose requests don't share a single
// pipe, are not bounded by Session itself.
const MaxInFlightStdio = 1

// Session is one runner process's session: one stream handler talking
// to the host on stdin/stdout, one pipeline, one backend.
type Session struct {
	handler  *rpcstream.Handler
	pipeline *intercept.Pipeline
	backend  backend.Backend

	sem chan struct{}

	// InstallSignalHandlers controls whether Start installs SIGINT/SIGTERM
	// handlers; true by default, set false in test environments.
	InstallSignalHandlers bool

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// New constructs a Session writing responses to out and dispatching requests
// through pipeline to be. maxInFlight bounds concurrent backend dispatches;
// pass MaxInFlightStdio for shell/python/node/container backends, or 0 for
// unbounded (http backend — each request is an independent connection).
func New(out io.Writer, pipeline *intercept.Pipeline, be backend.Backend, maxInFlight int) *Session {
	s := &Session{
		handler:               rpcstream.NewHandler(out),
		pipeline:              pipeline,
		backend:               be,
		InstallSignalHandlers: true,
		stopCh:                make(chan struct{}),
	}
	if maxInFlight > 0 {
		s.sem = make(chan struct{}, maxInFlight)
	}
	return s
}

// SetLogger attaches logger to the session's stream handler, per §9's
// explicit-Context redesign: callers (internal/cli) thread their own
// *slog.Logger in rather than the handler falling back to a package global.
func (s *Session) SetLogger(logger *slog.Logger) {
	s.handler.Logger = logger
}

// Start runs the session until stdin EOF, a signal, or ctx cancellation,
// whichever comes first. It blocks until the session has fully stopped.
func (s *Session) Start(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.InstallSignalHandlers {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			select {
			case <-sigCh:
				s.Stop(context.Background())
			case <-ctx.Done():
			}
		}()
	}

	readErrCh := make(chan error, 1)
	go func() { readErrCh <- s.handler.Run(in) }()

	for {
		select {
		case req, ok := <-s.handler.Requests():
			if !ok {
				s.Stop(context.Background())
				return <-readErrCh
			}
			s.dispatch(ctx, req)
		case <-ctx.Done():
			s.Stop(context.Background())
			return nil
		case <-s.stopCh:
			return <-readErrCh
		}
	}
}

// dispatch runs one request through the pipeline and backend, respecting
// the concurrency bound, and writes the response (if any) back to the host.
func (s *Session) dispatch(ctx context.Context, req *rpcstream.Envelope) {
	if s.sem != nil {
		s.sem <- struct{}{}
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.sem != nil {
			defer func() { <-s.sem }()
		}

		resp, err := s.pipeline.Dispatch(req, func(e *rpcstream.Envelope) (*rpcstream.Envelope, error) {
			return s.backend.Send(ctx, e)
		})
		if err != nil || resp == nil {
			return
		}
		if req.IsNotification() {
			return
		}
		_ = s.handler.SendResponse(resp)
	}()
}

// Stop idempotently drains in-flight dispatches within GraceWindow, then
// releases the backend.
func (s *Session) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.cancel != nil {
			s.cancel()
		}

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(GraceWindow):
		}

		stopCtx, cancel := context.WithTimeout(ctx, GraceWindow)
		defer cancel()
		_ = s.backend.Stop(stopCtx)
	})
}
