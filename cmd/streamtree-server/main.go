// Command streamtree-server exposes the streamtree core over HTTP: a
// chi router (the teacher's go-chi/chi/v5 dependency) serving one SSE
// endpoint that streams a rendered reply frame by frame, grounded on
// cmd/hector's server.HTTPServer route-registration shape
// (setupRoutes's mux.HandleFunc("/health", ...) style health check) and
// its main.go's Kong flag parsing.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kadirpekel/streamtree/config"
	"github.com/kadirpekel/streamtree/logging"
)

type cli struct {
	Config   string `short:"c" help:"Path to config file." type:"path" default:"streamtree.yaml"`
	Addr     string `help:"Address to listen on." default:":8080"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
}

func main() {
	var c cli
	kong.Parse(&c, kong.Name("streamtree-server"), kong.Description("HTTP server for the streamtree render engine"))

	logger := logging.New(logging.ParseLevel(c.LogLevel))

	cfg, err := loadConfig(c.Config)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if c.Addr != "" {
		cfg.Server.Host, cfg.Server.Port = splitAddr(c.Addr, cfg.Server.Host, cfg.Server.Port)
	}

	srv := &server{
		logger:  logger,
		resolve: func(name string) (chatBuilder, error) { return resolveProvider(context.Background(), cfg, name) },
	}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Post("/v1/render", srv.handleRender)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{Addr: addr, Handler: router}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutting down")
		httpSrv.Shutdown(ctx)
	}()

	logger.Info().Str("addr", addr).Msg("streamtree-server listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := &config.Config{}
		cfg.SetDefaults()
		return cfg, nil
	}
	return config.Load(path)
}

// splitAddr overrides host/port from a "host:port" command-line address,
// falling back to the config's own values for whichever half is empty.
func splitAddr(addr, defaultHost string, defaultPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultHost, defaultPort
	}
	if host == "" {
		host = defaultHost
	}
	port := defaultPort
	if parsed, err := strconv.Atoi(portStr); err == nil {
		port = parsed
	}
	return host, port
}
