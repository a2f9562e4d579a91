package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quadkit/quadhost/audio"
	"github.com/quadkit/quadhost/bridge"
	"github.com/quadkit/quadhost/gl"
	"github.com/quadkit/quadhost/shader"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to guest wasm file")
		configFile  = flag.String("config", "", "Path to yaml config file")
		headless    = flag.Bool("headless", false, "Run without an audio device")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: quadhost -wasm <file.wasm> [-config file.yaml] [-headless]")
		fmt.Fprintln(os.Stderr, "       quadhost -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	cfg, level, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*wasmFile, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wasmFile, cfg, level, *headless); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, an optional yaml file and QUADHOST_
// environment overrides (QUADHOST_CANVAS_WIDTH=1280 sets canvas.width).
func loadConfig(path string) (bridge.Config, zapcore.Level, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"canvas.width":      800,
		"canvas.height":     600,
		"canvas.dpi_scale":  1.0,
		"canvas.high_dpi":   false,
		"loop.fps":          60.0,
		"loop.manual":       false,
		"audio.sample_rate": 44100,
		"assets.root":       "",
		"log.level":         "info",
	}
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return bridge.Config{}, 0, err
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return bridge.Config{}, 0, fmt.Errorf("load config: %w", err)
		}
	}

	err := k.Load(env.Provider("QUADHOST_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "QUADHOST_")), "_", ".")
	}), nil)
	if err != nil {
		return bridge.Config{}, 0, fmt.Errorf("load env: %w", err)
	}

	var level zapcore.Level
	if err := level.Set(k.String("log.level")); err != nil {
		return bridge.Config{}, 0, fmt.Errorf("log level: %w", err)
	}

	cfg := bridge.Config{
		CanvasWidth:  int32(k.Int("canvas.width")),
		CanvasHeight: int32(k.Int("canvas.height")),
		DPIScale:     float32(k.Float64("canvas.dpi_scale")),
		HighDPI:      k.Bool("canvas.high_dpi"),
		FPS:          k.Float64("loop.fps"),
		ManualLoop:   k.Bool("loop.manual"),
		SampleRate:   k.Int("audio.sample_rate"),
		AssetRoot:    k.String("assets.root"),
	}
	return cfg, level, nil
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func run(wasmFile string, cfg bridge.Config, level zapcore.Level, headless bool) error {
	log, err := newLogger(level)
	if err != nil {
		return err
	}
	defer log.Sync()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The runner is windowless; a windowed host would supply a real
	// graphics backend and frontend here.
	c, err := bridge.New(ctx, cfg, gl.NewNullBackend(shader.Dialect300), nil, log)
	if err != nil {
		return err
	}
	defer c.Close(context.Background())

	if err := c.Load(ctx, data); err != nil {
		return err
	}

	if !headless {
		sink, err := audio.NewOtoSink(cfg.SampleRate)
		if err != nil {
			log.Warn("audio device unavailable, continuing silent", zap.Error(err))
		} else {
			defer sink.Close()
			if err := sink.Start(c.Engine()); err != nil {
				log.Warn("audio start failed, continuing silent", zap.Error(err))
			}
		}
	}

	log.Info("guest loaded", zap.String("file", wasmFile))
	if err := c.Run(ctx, nil); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
