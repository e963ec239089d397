package fixtured

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/neilotoole/slogt"
)

type fakeController struct {
	count  int
	frames chan []colorful.Color
	err    error
}

func (c *fakeController) LEDCount() int { return c.count }

func (c *fakeController) SetLEDs(colors []colorful.Color) error {
	frame := make([]colorful.Color, len(colors))
	copy(frame, colors)

	select {
	case c.frames <- frame:
	default:
	}
	return c.err
}

func TestRunFrames(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ok", nil},
		{"controller errors are logged", errors.New("strip unplugged")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			f, err := NewFixture(FixtureOpts{Variant: RGB, PixelCount: 4})
			if err != nil {
				t.Fatal("unexpected error:", err)
			}
			if err := f.Channels().Store([]float64{255, 0, 255}); err != nil {
				t.Fatal("unexpected error:", err)
			}

			ctrl := &fakeController{
				count:  4,
				frames: make(chan []colorful.Color, 1),
				err:    test.err,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- RunFrames(ctx, RunOpts{
					Fixture:    f,
					Controller: ctrl,
					FrameRate:  200,
					Logger:     slogt.New(t),
				})
			}()

			magenta := colorful.Color{R: 1, B: 1}
			for i := 0; i < 3; i++ {
				select {
				case frame := <-ctrl.frames:
					assertEq(t, []colorful.Color{magenta, magenta, magenta, magenta}, frame)
				case <-ctx.Done():
					t.Fatal("timed out waiting for a frame")
				}
			}

			cancel()
			if err := <-errCh; err != nil {
				t.Error("unexpected error:", err)
			}
		})
	}
}

func TestRunFramesInvalid(t *testing.T) {
	f, err := NewFixture(FixtureOpts{Variant: RGB, PixelCount: 4})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	ctx := context.Background()

	err = RunFrames(ctx, RunOpts{Fixture: f, Controller: &fakeController{count: 4}})
	if err == nil {
		t.Error("expected error for a zero frame rate")
	}

	err = RunFrames(ctx, RunOpts{Fixture: f, Controller: &fakeController{count: 3}, FrameRate: 30})
	if err == nil {
		t.Error("expected error for mismatched LED count")
	}
}
