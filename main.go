package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2"

	"MangaSketch/internal/config"
	"MangaSketch/internal/guide"
	lnet "MangaSketch/internal/net"
	"MangaSketch/internal/server"
	"MangaSketch/internal/ui"
)

const discoverTimeout = 3 * time.Second

func main() {
	args := os.Args[1:]
	var err error
	if len(args) > 0 && args[0] == "serve" {
		err = runServe(args[1:])
	} else {
		err = runDesktop(args)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "mangasketch:", err)
		os.Exit(1)
	}
}

// newGuideService builds the in-process backend client.
func newGuideService(cfg config.Config, log *slog.Logger) (*guide.Service, error) {
	gen, err := guide.NewGenerator(cfg.Guide.Provider, cfg.Guide.Options())
	if err != nil {
		return nil, err
	}
	return guide.NewService(gen,
		guide.WithModels(cfg.Guide.TextModel, cfg.Guide.VisionModel),
		guide.WithLogger(log),
	), nil
}

func newServer(cfg config.Config, addr string, g guide.Requester, log *slog.Logger) *server.Server {
	return server.NewServer(g, server.ServerOptions{
		Addr:     addr,
		Logger:   log,
		Width:    cfg.Canvas.Width,
		Height:   cfg.Canvas.Height,
		Settings: cfg.Settings(),
		MaxWidth: cfg.Brush.MaxWidth,
	})
}

// runServe hosts the guide endpoints and sketch sessions until interrupted.
func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to a TOML config file")
	listen := fs.String("listen", "", "listen address (overrides config)")
	advertise := fs.Bool("advertise", false, "announce the server over mDNS")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	log := cfg.Log.NewLogger(os.Stderr)
	if err := cfg.RequireCredential(); err != nil {
		return fmt.Errorf("%w: set GEMINI_API_KEY or guide.api_key", err)
	}
	if *listen != "" {
		cfg.Server.Addr = *listen
	}

	svc, err := newGuideService(cfg, log)
	if err != nil {
		return err
	}
	srv := newServer(cfg, cfg.Server.Addr, svc, log)
	if err := srv.Start(); err != nil {
		return err
	}

	if *advertise || cfg.Server.Advertise {
		port, err := lnet.PortOf(srv.Addr())
		if err != nil {
			return err
		}
		mdnsServer, err := lnet.Advertise(port)
		if err != nil {
			log.Warn("mdns advertise failed", "err", err)
		} else {
			defer mdnsServer.Shutdown()
			log.Info("advertising guide server", "service", lnet.ServiceType, "ip", lnet.GetOutgoingIP(), "port", port)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	return srv.Stop(context.Background())
}

// runDesktop opens the editor window. A missing credential is not fatal here:
// the guide actions fall back to a remote or discovered server, or report
// that no backend is configured.
func runDesktop(args []string) error {
	fs := flag.NewFlagSet("mangasketch", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to a TOML config file")
	listen := fs.String("listen", "", "also serve guide endpoints and sessions on this address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	log := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(log)

	var guides guide.Requester = guide.Unavailable{}
	discover := false
	switch {
	case cfg.RequireCredential() == nil:
		svc, err := newGuideService(cfg, log)
		if err != nil {
			return err
		}
		guides = svc
	case cfg.Guide.ServerURL != "":
		remote := guide.NewRemoteClient(cfg.Guide.ServerURL, nil)
		guides = remote
		log.Info("using remote guide server", "url", remote.BaseURL())
	case cfg.Guide.Discover:
		discover = true
	default:
		log.Warn("no guide backend configured")
	}

	if *listen != "" {
		if _, ok := guides.(*guide.Service); !ok {
			return errors.New("-listen needs an API key for the guide backend")
		}
		srv := newServer(cfg, *listen, guides, log)
		if err := srv.Start(); err != nil {
			return err
		}
		defer srv.Stop(context.Background())
		log.Info("embedded server started", "url", fmt.Sprintf("http://%s", srv.Addr()), "ip", lnet.GetOutgoingIP())
	}

	ui.RunApp(ui.Options{
		Config: cfg,
		Guides: guides,
		Logger: log,
		OnReady: func(e *ui.Editor) {
			if discover {
				go discoverGuides(e, log)
			}
		},
	})
	return nil
}

func discoverGuides(e *ui.Editor, log *slog.Logger) {
	url, err := lnet.Discover(context.Background(), discoverTimeout)
	if err != nil {
		log.Info("no guide server found", "err", err)
		return
	}
	log.Info("discovered guide server", "url", url)
	fyne.Do(func() {
		remote := guide.NewRemoteClient(url, nil)
		e.SetGuides(remote)
		e.SetStatus("Using guide server " + remote.BaseURL())
	})
}
