package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"dev.acmcsuf.com/christmas/lib/csvutil"
	"dev.acmcsuf.com/fixtured"
	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"libdb.so/hserve"
)

var (
	httpAddr     = ":9001"
	ledPointsCSV = ""
	variantName  = fixtured.Blinder.Name
	pixelCount   = 60
	frameRate    = 30
	verbose      = false
)

func init() {
	pflag.StringVarP(&httpAddr, "http-addr", "a", httpAddr, "HTTP server address")
	pflag.StringVar(&ledPointsCSV, "led-points", ledPointsCSV, "CSV file of LED points, enables 2-D addressing")
	pflag.StringVar(&variantName, "variant", variantName, "fixture variant")
	pflag.IntVarP(&pixelCount, "pixels", "n", pixelCount, "number of pixels, ignored with --led-points")
	pflag.IntVar(&frameRate, "frame-rate", frameRate, "frames rendered per second")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05 PM", // extended time.Kitchen
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})

	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	variant, err := fixtured.VariantByName(variantName)
	if err != nil {
		return err
	}

	h := &sessionsHandler{
		variant: variant,
		pixels:  pixelCount,
		logger:  logger,
	}

	if ledPointsCSV != "" {
		ledCoords, err := csvutil.UnmarshalFile[image.Point](ledPointsCSV)
		if err != nil {
			return fmt.Errorf("failed to unmarshal CSV file %q: %v", ledPointsCSV, err)
		}
		h.layout = fixtured.NewLayout(ledCoords)
		h.pixels = len(h.layout)
	}

	r := chi.NewRouter()
	r.Get("/session", h.handleNewSession)
	r.Get("/ws/{token}", h.handleSessionWS)

	logger.Info(
		"starting HTTP server",
		"addr", httpAddr,
		"variant", variant.Name,
		"pixels", h.pixels)

	return hserve.ListenAndServe(ctx, httpAddr, r)
}
