// Package main implements the taskmesh client process: a synthetic
// workload generator that discovers the current coordinator, submits
// steganography tasks at a configured rate, and verifies every result
// before reporting success.
//
// Configuration is a YAML file (see internal/config.ClientConfig); the
// path defaults to "client.yaml" and can be overridden with -config or the
// TASKMESH_CLIENT_CONFIG environment variable.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dreamware/taskmesh/internal/clientcoord"
	"github.com/dreamware/taskmesh/internal/config"
	"github.com/dreamware/taskmesh/internal/transform/lsb"
	"github.com/rs/zerolog"
)

var logFatal = func(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	configPath := flag.String("config", envOr("TASKMESH_CLIENT_CONFIG", "client.yaml"), "path to client config YAML")
	flag.Parse()

	log := newLogger()

	cfg, err := config.LoadClientConfig(*configPath)
	if err != nil {
		logFatal("taskmesh-client: %v", err)
		return
	}

	client := clientcoord.New(cfg, lsb.Extract, log)

	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		log.Info().Msg("taskmesh-client: shutting down")
		cancel()
	}()

	runWorkload(ctx, client, cfg.Profile, log)
}

// runWorkload submits tasks at the configured rate for the configured
// duration (or until ctx is cancelled), logging each result.
func runWorkload(ctx context.Context, client *clientcoord.Client, profile config.RequestProfile, log zerolog.Logger) {
	rate := profile.RatePerSecond
	if rate <= 0 {
		rate = 1
	}
	interval := time.Duration(float64(time.Second) / rate)

	var deadline <-chan time.Time
	if profile.DurationSeconds > 0 {
		timer := time.NewTimer(time.Duration(profile.DurationSeconds * float64(time.Second)))
		defer timer.Stop()
		deadline = timer.C
	}

	payload := syntheticPNG()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var requestCount uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case <-ticker.C:
			requestCount++
			requestID := clientcoord.NewRequestID()
			reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			resp, err := client.SubmitTask(reqCtx, requestID, payload, "payload.png", profile.ParameterText)
			cancel()

			if err != nil {
				log.Warn().Err(err).Uint64("request_id", requestID).Msg("taskmesh-client: task submission cancelled")
				continue
			}
			log.Info().
				Uint64("request_id", requestID).
				Bool("ok", resp.OK).
				Msg("taskmesh-client: task completed and verified")
		}
	}
}

// syntheticPNG returns a small in-memory PNG to use as the canonical
// payload image; its content is irrelevant beyond carrying enough pixels
// for the least-significant-bit embedding to have room.
func syntheticPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err) // encoding a freshly constructed in-memory image cannot fail
	}
	return buf.Bytes()
}

func newLogger() zerolog.Logger {
	if os.Getenv("TASKMESH_LOG_FORMAT") == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
