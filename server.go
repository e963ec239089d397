package fixtured

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gobwas/ws"
	"golang.org/x/sync/errgroup"
	"gopkg.in/typ.v4/sync2"
)

// ServerOpts are options for a server.
type ServerOpts struct {
	// Fixture is the fixture whose channels the bridge writes.
	Fixture *Fixture
	// Logger is the logger to use for the server.
	Logger *slog.Logger
	// HTTPUpgrader is the HTTP-to-Websocket upgrader to use for the server.
	HTTPUpgrader ws.HTTPUpgrader
}

// Server accepts websocket connections from Pixelblaze-style bridge clients.
type Server struct {
	opts        ServerOpts
	connections sync2.Map[*Session, sessionControl]
}

type sessionControl struct {
	cancel context.CancelCauseFunc
}

// NewServer creates a new server.
func NewServer(opts ServerOpts) *Server {
	return &Server{
		opts: opts,
	}
}

// KickAllConnections kicks all connections from the server.
// Optionally, a reason can be provided.
func (s *Server) KickAllConnections(reason string) {
	var err error
	if reason != "" {
		err = fmt.Errorf("kicked: %s", reason)
	} else {
		err = fmt.Errorf("kicked")
	}

	s.connections.Range(func(s *Session, ctrl sessionControl) bool {
		ctrl.cancel(err)
		return true
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session, err := SessionUpgrade(w, r, s.opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancelCause(r.Context())
	defer cancel(nil)

	s.connections.Store(session, sessionControl{cancel: cancel})
	defer s.connections.Delete(session)

	if err := session.Start(ctx); err != nil && ctx.Err() == nil {
		session.logger.Warn(
			"session ended with error",
			"error", err)
	}
}

// Session is a websocket session. It implements handling of messages from a
// single bridge client.
type Session struct {
	ws     *websocketServer
	logger *slog.Logger
	opts   ServerOpts
}

// SessionUpgrade upgrades an HTTP request to a websocket session.
func SessionUpgrade(w http.ResponseWriter, r *http.Request, opts ServerOpts) (*Session, error) {
	wsconn, _, _, err := opts.HTTPUpgrader.Upgrade(r, w)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade HTTP: %w", err)
	}

	logger := opts.Logger.With("addr", wsconn.RemoteAddr())

	return &Session{
		ws:     newWebsocketServer(wsconn, logger),
		logger: logger,
		opts:   opts,
	}, nil
}

// Start starts the session. It returns when the client disconnects or ctx is
// done.
func (s *Session) Start(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errg.Go(func() error {
		return s.ws.Start(ctx)
	})

	errg.Go(func() error {
		// Treat main loop errors as fatal and kill the connection,
		// but don't return it because it's not the caller's fault.
		if err := s.mainLoop(ctx); err != nil {
			return s.ws.SendError(ctx, err)
		}
		return nil
	})

	return errg.Wait()
}

func (s *Session) mainLoop(ctx context.Context) error {
	fixture := s.opts.Fixture
	export := fixture.Variant().Export

	var values []float64

	for {
		select {
		case <-ctx.Done():
			return nil

		case msg := <-s.ws.Messages:
			if msg.SetVars != nil {
				raw, ok := msg.SetVars[export]
				if !ok {
					s.logger.DebugContext(ctx,
						"ignoring setVars without fixture variable",
						"variable", export)
					continue
				}

				values = values[:0]
				if err := json.Unmarshal(raw, &values); err != nil {
					return fmt.Errorf("invalid %s: %w", export, err)
				}
				if err := fixture.Channels().Store(values); err != nil {
					return fmt.Errorf("failed to set %s: %w", export, err)
				}
			}

			if msg.GetVars {
				if err := s.ws.Send(ctx, &ServerMessage{Vars: fixtureVars(fixture)}); err != nil {
					return nil
				}
			}
		}
	}
}

// fixtureVars returns the variables a client can read back: the channel
// buffer and, for strobe variants, the strobe state of the last frame.
func fixtureVars(f *Fixture) map[string]any {
	vars := map[string]any{
		f.Variant().Export: f.Channels().Snapshot(nil),
	}
	if f.Variant().Effect {
		frame := f.LastFrame()
		vars["strobeBri"] = frame.Brightness
		vars["strobeRate"] = frame.Rate
	}
	return vars
}
