package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nicnick-Xia/MindStorm/internal/server"
	"github.com/Nicnick-Xia/MindStorm/pkg/mindmap"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
		offline    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mind map HTTP API",
		Long: `Run the mind map HTTP API.

The server holds a single in-memory mind map session. Browser shells seed
it with POST /api/seed, expand nodes with POST /api/nodes/{id}/expand, and
poll GET /api/layout for radial node positions. State dies with the process.

Idea generation uses the configured OpenAI-compatible endpoint, or a
deterministic built-in generator with --offline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg, offline)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the built-in generator, no network calls")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg *Config, offline bool) error {
	gen, err := c.newGenerator(ctx, cfg, offline)
	if err != nil {
		return fmt.Errorf("initialize generator: %w", err)
	}

	ctrl := mindmap.NewController(mindmap.NewStore(), gen, c.Logger)
	srv := server.New(ctrl, c.Logger)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", cfg.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}
