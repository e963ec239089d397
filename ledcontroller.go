package fixtured

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// LEDController is a controller for LEDs.
type LEDController interface {
	// LEDCount returns the number of LEDs.
	LEDCount() int
	// SetLEDs sets the color of every LED.
	SetLEDs(colors []colorful.Color) error
}

// RunOpts are options for RunFrames.
type RunOpts struct {
	// Fixture is the fixture to render.
	Fixture *Fixture
	// Controller receives every rendered frame.
	Controller LEDController
	// FrameRate is the number of frames rendered per second.
	FrameRate int
	// Logger is the logger to use.
	Logger *slog.Logger
}

// RunFrames renders the fixture into the controller at the configured frame
// rate until ctx is done. Each frame is prepared with the wall-clock time
// since the previous frame. Controller errors are logged and do not stop the
// loop.
func RunFrames(ctx context.Context, opts RunOpts) error {
	if opts.FrameRate <= 0 {
		return fmt.Errorf("invalid frame rate %d", opts.FrameRate)
	}
	if n := opts.Controller.LEDCount(); n != opts.Fixture.PixelCount() {
		return fmt.Errorf("controller has %d LEDs, fixture has %d pixels", n, opts.Fixture.PixelCount())
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	frame := make([]colorful.Color, opts.Fixture.PixelCount())

	frameTicker := time.NewTicker(time.Second / time.Duration(opts.FrameRate))
	defer frameTicker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-frameTicker.C:
			elapsed := now.Sub(last)
			last = now

			if err := opts.Fixture.Render(frame, elapsed); err != nil {
				return fmt.Errorf("failed to render frame: %w", err)
			}

			if err := opts.Controller.SetLEDs(frame); err != nil {
				logger.ErrorContext(ctx,
					"error writing LEDs",
					"error", err)
			}
		}
	}
}
