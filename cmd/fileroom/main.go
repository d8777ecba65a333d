package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"fileroom/internal/config"
	"fileroom/internal/httpserver"
	"fileroom/internal/throttle"
	"fileroom/internal/watch"
)

func main() {
	var (
		addr      = flag.String("addr", config.DefaultAddr, "listen address")
		root      = flag.String("root", "", "share root (required if -config is not set)")
		stateDir  = flag.String("state", "", "state dir for thumbnail cache (default: <root>/.fileroom)")
		cfgPath   = flag.String("config", "", "path to config json (optional)")
		speedMbps = flag.Float64("speed-limit-mbps", 0, "aggregate download cap in Mbps across all clients (0 = unlimited)")
		logLevel  = flag.String("log-level", "", "log level: debug, info, warn, error (default: info)")
	)
	flag.Parse()

	var cfg config.Config
	if *cfgPath != "" {
		b, err := os.ReadFile(*cfgPath)
		if err != nil {
			logrus.WithError(err).Fatal("read config")
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			logrus.WithError(err).Fatal("parse config")
		}
	} else {
		if strings.TrimSpace(*root) == "" {
			logrus.Fatal("missing -root (or provide -config)")
		}
		cfg.Root = *root
		cfg.StateDir = *stateDir
		if *speedMbps > 0 {
			cfg.SpeedLimitEnabled = true
			cfg.SpeedLimitMbps = *speedMbps
		}
	}
	if cfg.Addr == "" {
		cfg.Addr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	setupLogging(cfg.LogLevel)

	if cfg.Root == "" {
		logrus.Fatal("config: root is required")
	}
	absRoot, err := filepath.Abs(cfg.Root)
	if err != nil {
		logrus.WithError(err).Fatal("abs root")
	}
	cfg.Root = absRoot
	if st, err := os.Stat(cfg.Root); err != nil || !st.IsDir() {
		logrus.WithField("root", cfg.Root).Fatal("root is not a directory")
	}
	if cfg.StateDir == "" {
		cfg.StateDir = filepath.Join(cfg.Root, ".fileroom")
	}
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		logrus.WithError(err).Fatal("mkdir state")
	}

	limiter := throttle.New(cfg.SpeedLimitBytesPerSec())

	if watcher, err := watch.New(cfg.Root); err != nil {
		// The server works fine without the watcher; only gauges go stale.
		logrus.WithError(err).Warn("change watcher disabled")
	} else {
		watcher.Start()
		defer watcher.Stop()
	}

	srv, err := httpserver.New(httpserver.Options{
		Config:  cfg,
		Limiter: limiter,
	})
	if err != nil {
		logrus.WithError(err).Fatal("server init")
	}

	logrus.WithFields(logrus.Fields{
		"addr":       cfg.Addr,
		"root":       cfg.Root,
		"limit_mbps": cfg.SpeedLimitMbps,
		"throttled":  limiter != nil,
	}).Info("fileroom listening")
	logrus.Infof("browse at http://%s/files/ (QR: /qr, WebDAV: /dav/)", cfg.Addr)

	if err := http.ListenAndServe(cfg.Addr, withHeaders(srv.Handler())); err != nil {
		logrus.WithError(err).Fatal("listen")
	}
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

func withHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Basic hardening / UX.
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
