package main

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"dev.acmcsuf.com/christmas/lib/leddraw"
	"dev.acmcsuf.com/christmas/lib/xcolor"
	"dev.acmcsuf.com/fixtured"
	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/typ.v4/sync2"
)

type sessionsHandler struct {
	variant fixtured.Variant
	pixels  int
	layout  fixtured.Layout
	logger  *slog.Logger

	sessions sync2.Map[string, *sessionInstance]
}

func (m *sessionsHandler) handleNewSession(w http.ResponseWriter, r *http.Request) {
	wflush, ok := w.(writeFlusher)
	if !ok {
		http.Error(w, "server does not support flushing", http.StatusInternalServerError)
		return
	}

	fixture, err := fixtured.NewFixture(fixtured.FixtureOpts{
		Variant:    m.variant,
		PixelCount: m.pixels,
		Layout:     m.layout,
	})
	if err != nil {
		m.logger.Error(
			"failed to create fixture",
			"error", err)

		http.Error(w, "failed to create fixture", http.StatusInternalServerError)
		return
	}

	session := &sessionInstance{
		frame:   make(chan struct{}, 1),
		fixture: fixture,
		strip:   make(leddraw.LEDStrip, fixture.PixelCount()),
		rctx:    r.Context(),
	}

	token := m.addSession(session)
	defer m.sessions.Delete(token)

	m.logger.Info(
		"new session created",
		"token", token)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- fixtured.RunFrames(ctx, fixtured.RunOpts{
			Fixture:    fixture,
			Controller: (*sessionLEDController)(session),
			FrameRate:  frameRate,
			Logger:     m.logger.With("token", token),
		})
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	init := previewEventToSSE(PreviewInit{
		Variant:      m.variant.Name,
		PixelCount:   fixture.PixelCount(),
		Layout:       m.layout,
		SessionToken: token,
	})
	writeSSE(wflush, init)

frameLoop:
	for {
		select {
		case <-r.Context().Done():
			break frameLoop
		case err := <-runErr:
			if err != nil {
				m.logger.Error(
					"session frame loop stopped",
					"token", token,
					"error", err)

				writeSSE(wflush, previewEventToSSE(PreviewError{
					Message: err.Error(),
				}))
			}
			break frameLoop
		case <-session.frame:
			session.stripMu.Lock()
			frame := previewEventToSSE(PreviewFrame{
				LEDColors: session.strip,
			})
			session.stripMu.Unlock()
			writeSSE(wflush, frame)
		}
	}

	m.logger.Info(
		"session has been closed",
		"token", token)
}

func (m *sessionsHandler) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	session, ok := m.sessions.Load(token)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	bridgeSession, err := fixtured.SessionUpgrade(w, r, fixtured.ServerOpts{
		Fixture: session.fixture,
		Logger:  m.logger.With("token", token),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.logger.Info(
		"session has been connected to a new websocket",
		"token", token)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		select {
		case <-ctx.Done():
		case <-session.rctx.Done():
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		if err := bridgeSession.Start(ctx); err != nil {
			m.logger.Warn(
				"session ended with error",
				"token", token,
				"error", err)
		}
	}()

	wg.Wait()

	m.logger.Info(
		"session has been disconnected from websocket",
		"token", token)
}

func (h *sessionsHandler) addSession(s *sessionInstance) string {
	for {
		uuid, err := uuid.NewV7()
		if err != nil {
			panic(err)
		}

		token := uuid.String()
		if _, collided := h.sessions.LoadOrStore(token, s); !collided {
			return token
		}
	}
}

type sessionInstance struct {
	frame   chan struct{}
	fixture *fixtured.Fixture
	stripMu sync.Mutex
	strip   leddraw.LEDStrip
	rctx    context.Context
}

type sessionLEDController sessionInstance

var _ fixtured.LEDController = (*sessionLEDController)(nil)

func (c *sessionLEDController) LEDCount() int {
	return len(c.strip)
}

func (c *sessionLEDController) SetLEDs(colors []colorful.Color) error {
	c.stripMu.Lock()
	defer c.stripMu.Unlock()

	for i, color := range colors {
		r, g, b := color.Clamped().RGB255()
		c.strip[i] = xcolor.RGBFromUint(fixtured.Pack(r, g, b).Uint())
	}

	c.queueDraw()
	return nil
}

func (c *sessionLEDController) queueDraw() {
	select {
	case c.frame <- struct{}{}:
	default:
	}
}
