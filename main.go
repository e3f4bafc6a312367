package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/gorilla/handlers"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"edgecam/config"
	"edgecam/serve"
	"edgecam/video"
	"edgecam/video/sink"
	"edgecam/video/source"
)

var (
	configPath = flag.String("config", "/etc/edgecam/config.yaml", "Path to the camera configuration (YAML or JSON).")
	port       = flag.Int("port", 0, "Port to host the web frontend. Overrides the configured port.")
	maxFPS     = flag.Int("max_fps", 0, "Rate limit for MJPEG clients, 0 for unlimited.")
)

const shutdownTimeout = 5 * time.Second

func main() {
	flag.Parse()
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func setLogLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Ignoring log level %q: %v", level, err)
		return
	}
	log.SetLevel(lvl)
}

func loadFallback(path string) *source.Fallback {
	if path != "" {
		fb, err := source.LoadFallback(path)
		if err == nil {
			return fb
		}
		log.Warnf("Using test pattern as fallback: %v", err)
	}
	fb, err := source.NewTestPattern(640, 480)
	if err != nil {
		log.Fatalf("Failed to build fallback image: %v", err)
	}
	return fb
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type change struct{ old, new *config.Config }
	changes := make(chan change, 1)
	onChange := func(old, new *config.Config) {
		select {
		case changes <- change{old, new}:
		case <-ctx.Done():
		}
	}
	if err := config.Load(ctx, *configPath, onChange); err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	cfg := config.Get()
	setLogLevel(cfg.LogLevel)

	session := video.NewSession(loadFallback(cfg.FallbackPath), cfg.Options())
	defer session.Close()
	session.Start(cfg.StartParams())

	startParams := func() video.StartParams { return config.Get().StartParams() }

	mux := http.NewServeMux()
	mux.Handle("/video_feed", &sink.MJPEGHandler{Source: session, MaxFPS: *maxFPS})
	mux.Handle("/video_ws", serve.NewFrameSocket(session))
	mux.Handle("/capture_image", &serve.CaptureServer{Camera: session, Path: cfg.CapturePath})
	mux.Handle("/camera", &serve.StatusServer{Camera: session, ClassifierDir: cfg.ClassifierDir})
	mux.Handle("/camera/start", serve.NewStartServer(session, startParams))
	mux.Handle("/camera/stop", serve.NewStopServer(session))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	p := cfg.Port
	if *port != 0 {
		p = *port
	}
	// Streaming handlers run until their request context ends, which
	// Shutdown alone never does.
	streams, stopStreams := context.WithCancel(context.Background())
	defer stopStreams()
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", p),
		Handler:     handlers.CombinedLoggingHandler(os.Stdout, mux),
		BaseContext: func(net.Listener) context.Context { return streams },
	}
	errc := make(chan error, 1)
	go func() {
		log.Infof("Hosting web frontend on port %d", p)
		errc <- srv.ListenAndServe()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	daemon.SdNotify(false, daemon.SdNotifyReady)
	for {
		select {
		case c := <-changes:
			setLogLevel(c.new.LogLevel)
			if c.old.CameraChanged(c.new) {
				log.Info("Camera configuration changed, restarting capture")
				session.Start(c.new.StartParams())
			}
		case sig := <-sigs:
			log.Infof("Caught signal %v", sig)
			daemon.SdNotify(false, daemon.SdNotifyStopping)
			stopStreams()
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			if err := srv.Shutdown(sctx); err != nil {
				log.Warnf("Web frontend did not shut down cleanly, closing: %v", err)
				srv.Close()
			}
			return nil
		case err := <-errc:
			return errors.Wrap(err, "web frontend failed")
		}
	}
}
