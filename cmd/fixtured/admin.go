package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"dev.acmcsuf.com/christmas/lib/leddraw"
	"dev.acmcsuf.com/fixtured"
	"github.com/go-chi/chi/v5"
	"libdb.so/hrt"
)

type adminHandler struct {
	*chi.Mux
	server     *fixtured.Server
	fixture    *fixtured.Fixture
	controller *ledController
	token      *atomic.Pointer[string]
}

func newAdminHandler(server *fixtured.Server, fixture *fixtured.Fixture, controller *ledController, token *atomic.Pointer[string]) *adminHandler {
	h := &adminHandler{
		Mux:        chi.NewRouter(),
		server:     server,
		fixture:    fixture,
		controller: controller,
		token:      token,
	}

	h.Use(hrt.Use(hrt.Opts{
		Encoder: hrt.CombinedEncoder{
			Encoder: hrt.JSONEncoder,
			Decoder: hrt.URLDecoder,
		},
		ErrorWriter: hrt.TextErrorWriter,
	}))

	h.Patch("/token", hrt.Wrap(h.patchToken))
	h.Post("/kick-all", hrt.Wrap(h.kickAll))
	h.Patch("/channels", hrt.Wrap(h.patchChannels))
	h.Get("/frame", hrt.Wrap(h.getFrame))
	h.Get("/leds", hrt.Wrap(h.getLEDs))

	return h
}

type patchTokenRequest struct {
	Token string `query:"token"`
}

func (h *adminHandler) patchToken(ctx context.Context, req patchTokenRequest) (hrt.None, error) {
	if req.Token == "" {
		h.token.Store(nil)
	} else {
		h.token.Store(&req.Token)
	}
	return hrt.Empty, nil
}

type kickAllRequest struct {
	Reason string `query:"reason"`
}

func (h *adminHandler) kickAll(ctx context.Context, req kickAllRequest) (hrt.None, error) {
	h.server.KickAllConnections(req.Reason)
	return hrt.Empty, nil
}

type patchChannelsRequest struct {
	// Values is a comma-separated list of every channel value.
	Values string `query:"values"`
}

func (h *adminHandler) patchChannels(ctx context.Context, req patchChannelsRequest) (hrt.None, error) {
	values, err := parseChannelValues(req.Values)
	if err != nil {
		return hrt.Empty, err
	}
	if err := h.fixture.Channels().Store(values); err != nil {
		return hrt.Empty, err
	}
	return hrt.Empty, nil
}

func parseChannelValues(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid channel %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

type frameResponse struct {
	Variant    string    `json:"variant"`
	Channels   []float64 `json:"channels"`
	Updates    uint64    `json:"updates"`
	Color      string    `json:"color"`
	Intensity  float64   `json:"intensity"`
	Rate       float64   `json:"rate"`
	PeriodMS   float64   `json:"period_ms"`
	Brightness float64   `json:"brightness"`
}

func (h *adminHandler) getFrame(ctx context.Context, _ hrt.None) (frameResponse, error) {
	frame := h.fixture.LastFrame()
	return frameResponse{
		Variant:    h.fixture.Variant().Name,
		Channels:   h.fixture.Channels().Snapshot(nil),
		Updates:    h.fixture.Channels().Updates(),
		Color:      frame.Color.Clamped().Hex(),
		Intensity:  frame.Intensity,
		Rate:       frame.Rate,
		PeriodMS:   float64(frame.Period.Microseconds()) / 1000,
		Brightness: frame.Brightness,
	}, nil
}

func (h *adminHandler) getLEDs(ctx context.Context, _ hrt.None) (leddraw.LEDStrip, error) {
	return h.controller.LEDs(), nil
}
