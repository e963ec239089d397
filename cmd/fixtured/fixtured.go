package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"

	"dev.acmcsuf.com/christmas/lib/csvutil"
	"dev.acmcsuf.com/fixtured"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"libdb.so/hserve"
	"libdb.so/ledctl"
)

var (
	configPath    = ""
	httpAddr      = "0.0.0.0:81"
	httpAdminAddr = "127.0.0.1:9002"
	ledPointsCSV  = ""
	variantName   = fixtured.Blinder.Name
	pixelCount    = 0
	frameRate     = fixtured.DefaultFrameRate
	verbose       = false
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "YAML fixture config file")
	pflag.StringVarP(&httpAddr, "http-addr", "a", httpAddr, "HTTP server address for bridge clients")
	pflag.StringVarP(&httpAdminAddr, "http-admin-addr", "A", httpAdminAddr, "HTTP admin server address")
	pflag.StringVar(&ledPointsCSV, "led-points", ledPointsCSV, "CSV file of LED points, enables 2-D addressing")
	pflag.StringVar(&variantName, "variant", variantName, "fixture variant (rgb, blinder, packed-blinder, receiver)")
	pflag.IntVarP(&pixelCount, "pixels", "n", pixelCount, "number of pixels")
	pflag.IntVar(&frameRate, "frame-rate", frameRate, "frames rendered per second")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

var ws281xConfig = ledctl.WS281xConfig{
	ColorOrder:   ledctl.BGROrder,
	ColorModel:   ledctl.RGBModel,
	PWMFrequency: 800000,
	DMAChannel:   10,
	GPIOPins:     []int{12},
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

	if err := run(ctx, logger, level); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the config file, if any, and applies the flags that were
// set on the command line over it.
func loadConfig() (*fixtured.Config, error) {
	cfg := &fixtured.Config{
		Variant:   variantName,
		Pixels:    pixelCount,
		FrameRate: frameRate,
		LEDPoints: ledPointsCSV,
	}

	if configPath != "" {
		fileCfg, err := fixtured.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}

		flags := pflag.CommandLine
		if flags.Changed("variant") || fileCfg.Variant == "" {
			fileCfg.Variant = cfg.Variant
		}
		if flags.Changed("pixels") {
			fileCfg.Pixels = cfg.Pixels
		}
		if flags.Changed("frame-rate") {
			fileCfg.FrameRate = cfg.FrameRate
		}
		if flags.Changed("led-points") {
			fileCfg.LEDPoints = cfg.LEDPoints
		}
		cfg = fileCfg
	}

	return cfg, nil
}

func run(ctx context.Context, logger *slog.Logger, level slog.Level) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	variant, err := cfg.Resolve()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var layout fixtured.Layout
	if cfg.LEDPoints != "" {
		ledCoords, err := csvutil.UnmarshalFile[image.Point](cfg.LEDPoints)
		if err != nil {
			return fmt.Errorf("failed to unmarshal CSV file %q: %v", cfg.LEDPoints, err)
		}
		layout = fixtured.NewLayout(ledCoords)
	}

	fixture, err := fixtured.NewFixture(fixtured.FixtureOpts{
		Variant:    variant,
		PixelCount: cfg.Pixels,
		Layout:     layout,
	})
	if err != nil {
		return fmt.Errorf("failed to create fixture: %v", err)
	}

	ws281xCfg := ws281xConfig
	ws281xCfg.NumPixels = fixture.PixelCount()

	ws281x, err := ledctl.NewWS281x(ws281xCfg)
	if err != nil {
		return fmt.Errorf("failed to create a WS281x controller: %v", err)
	}

	controller := newLEDController(ledControlConfig{
		Controller: ws281x,
		NumPixels:  fixture.PixelCount(),
		FrameRate:  cfg.FrameRate,
		Logger:     logger.With("component", "led-controller"),
	})

	server := fixtured.NewServer(fixtured.ServerOpts{
		Fixture: fixture,
		Logger:  logger.With("component", "server"),
	})

	logger.Info(
		"fixture ready",
		"variant", variant.Name,
		"pixels", fixture.PixelCount(),
		"channels", fixture.Channels().Len(),
		"spatial", layout != nil)

	token := atomic.Pointer[string]{}

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return controller.start(ctx)
	})

	errg.Go(func() error {
		return fixtured.RunFrames(ctx, fixtured.RunOpts{
			Fixture:    fixture,
			Controller: controller,
			FrameRate:  cfg.FrameRate,
			Logger:     logger.With("component", "frames"),
		})
	})

	errg.Go(func() error {
		httpLogger := httplog.NewLogger("fixtured", httplog.Options{
			LogLevel: level,
			Concise:  true,
		})

		r := chi.NewRouter()
		r.Use(httplog.RequestLogger(httpLogger))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			tokenWant := token.Load()
			if tokenWant != nil {
				if r.URL.Query().Get("token") != *tokenWant {
					http.Error(w, "invalid token", http.StatusForbidden)
					return
				}
			}

			server.ServeHTTP(w, r)
		})

		logger.Info(
			"starting public HTTP server",
			"addr", httpAddr)

		return hserve.ListenAndServe(ctx, httpAddr, r)
	})

	errg.Go(func() error {
		admin := newAdminHandler(server, fixture, controller, &token)

		logger.Info(
			"starting admin HTTP server",
			"addr", httpAdminAddr)

		return hserve.ListenAndServe(ctx, httpAdminAddr, admin)
	})

	return errg.Wait()
}
