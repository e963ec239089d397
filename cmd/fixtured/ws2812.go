package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dev.acmcsuf.com/christmas/lib/leddraw"
	"dev.acmcsuf.com/christmas/lib/xcolor"
	"dev.acmcsuf.com/fixtured"
	"github.com/lucasb-eyer/go-colorful"
	"libdb.so/ledctl"
)

// RGBController is a controller for RGB LEDs.
type RGBController interface {
	SetRGBAt(i int, color ledctl.RGB)
	Flush() error
}

type ledController struct {
	logger *slog.Logger

	drawCh chan struct{}
	ctrl   RGBController
	ctrlMu sync.Mutex
	strip  leddraw.LEDStrip

	cfg ledControlConfig
}

var _ fixtured.LEDController = (*ledController)(nil)

type ledControlConfig struct {
	Controller RGBController
	NumPixels  int
	FrameRate  int

	Logger *slog.Logger
}

func newLEDController(cfg ledControlConfig) *ledController {
	return &ledController{
		logger: cfg.Logger,
		drawCh: make(chan struct{}, 1),
		ctrl:   cfg.Controller,
		strip:  make(leddraw.LEDStrip, cfg.NumPixels),
		cfg:    cfg,
	}
}

// start flushes queued frames to the strip, at most once per frame tick.
func (c *ledController) start(ctx context.Context) error {
	drawCh := c.drawCh

	frameTicker := time.NewTicker(time.Second / time.Duration(c.cfg.FrameRate))
	defer frameTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-frameTicker.C:
			drawCh = c.drawCh
			continue
		case <-drawCh:
			drawCh = nil
		}

		c.ctrlMu.Lock()
		if err := c.ctrl.Flush(); err != nil {
			c.logger.Error(
				"error writing LED strip",
				"error", err)
		}
		c.ctrlMu.Unlock()
	}
}

func (c *ledController) LEDCount() int {
	return len(c.strip)
}

func (c *ledController) SetLEDs(colors []colorful.Color) error {
	c.ctrlMu.Lock()
	defer c.ctrlMu.Unlock()

	for i, color := range colors {
		c.strip[i] = toRGB(color)
		c.ctrl.SetRGBAt(i, ledctl.RGB(c.strip[i]))
	}

	c.queueDraw()
	return nil
}

// LEDs returns a copy of the last colors written to the strip.
func (c *ledController) LEDs() leddraw.LEDStrip {
	c.ctrlMu.Lock()
	defer c.ctrlMu.Unlock()

	strip := make(leddraw.LEDStrip, len(c.strip))
	copy(strip, c.strip)
	return strip
}

func (c *ledController) queueDraw() {
	select {
	case c.drawCh <- struct{}{}:
	default:
	}
}

func toRGB(color colorful.Color) xcolor.RGB {
	r, g, b := color.Clamped().RGB255()
	return xcolor.RGBFromUint(fixtured.Pack(r, g, b).Uint())
}
