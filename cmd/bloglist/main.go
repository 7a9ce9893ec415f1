package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/alphabot-ai/bloglist/internal/auth"
	"github.com/alphabot-ai/bloglist/internal/config"
	httpapp "github.com/alphabot-ai/bloglist/internal/http"
	"github.com/alphabot-ai/bloglist/internal/secrets"
	"github.com/alphabot-ai/bloglist/internal/stats"
	"github.com/alphabot-ai/bloglist/internal/store/backends"
)

// Set via -ldflags "-X main.version=... -X main.commit=... -X main.buildTime=...".
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "bloglist",
		Usage:   "Blog list API server",
		Version: version,
		Description: `Environment variables:
  BLOGLIST_CONFIG         Optional YAML config file
  BLOGLIST_ADDR / PORT    Listen address (default: :3003)
  BLOGLIST_DB             Store DSN: sqlite path, bolt://path or mongodb://... (default: bloglist.db)
  BLOGLIST_SECRET         Token signing secret
  BLOGLIST_BCRYPT_COST    bcrypt cost for new passwords
  BLOGLIST_VAULT_PATH     Read the secret from Vault KV v2 at this path`,
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server"},
				Usage:   "Start the HTTP API (default if no command)",
				Action:  runServer,
			},
			{
				Name:   "stats",
				Usage:  "Print blog statistics from the configured store as JSON",
				Action: printStats,
			},
			{
				Name:  "version",
				Usage: "Print build information",
				Action: func(c *cli.Context) error {
					fmt.Printf("bloglist %s (commit %s, built %s)\n", version, commit, buildTime)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	cfg.Version, cfg.Commit, cfg.BuildTime = version, commit, buildTime
	return cfg, nil
}

func runServer(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	secret, err := secrets.ResolveSecret(c.Context, cfg, nil)
	if err != nil {
		return fmt.Errorf("resolve token secret: %w", err)
	}
	if cfg.Vault.Path == "" && cfg.DevSecret() {
		log.Printf("warning: using the built-in development token secret; set BLOGLIST_SECRET")
	}
	tokens, err := auth.NewTokens(secret)
	if err != nil {
		return err
	}

	st, err := backends.Open(c.Context, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	server := httpapp.NewServer(st, tokens, cfg)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("bloglist listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

func printStats(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := backends.Open(c.Context, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	blogs, err := st.ListBlogs(c.Context)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats.Summarize(blogs))
}
