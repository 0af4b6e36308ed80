package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mgpai22/lysync/internal/editor"
	"github.com/mgpai22/lysync/internal/lyrics"
	"github.com/mgpai22/lysync/internal/realtime"
	"github.com/mgpai22/lysync/internal/server"
	"github.com/mgpai22/lysync/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Relay live lyrics from a player to browser overlays",
	Long: `Start the websocket endpoint players connect to and the HTTP API that
overlays and the lyric editor use.

The websocket server accepts the player's JSON and binary messages. The HTTP
server exposes the live state, its event stream at /amll/stream, lyric
conversion and the token editor.

With redis enabled the live state and open editor documents survive restarts.

Examples:
  lysync serve
  lysync serve --http-addr :8080 --ws-addr :11444
  lysync serve --songs-dir ./songs -v`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().
		String("http-addr", "", "HTTP listen address (default from config, :5000)")
	serveCmd.Flags().
		String("ws-addr", "", "Websocket listen address (default from config, :11444)")
	serveCmd.Flags().
		String("songs-dir", "", "Directory with lyric files and covers (default from config)")
	serveCmd.Flags().
		String("exports-dir", "", "Directory for exported player data (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if v, _ := cmd.Flags().GetString("http-addr"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v, _ := cmd.Flags().GetString("ws-addr"); v != "" {
		cfg.Server.WSAddr = v
	}
	if v, _ := cmd.Flags().GetString("songs-dir"); v != "" {
		cfg.Paths.SongsDir = v
		cfg.Paths.CoversDir = v
	}
	if v, _ := cmd.Flags().GetString("exports-dir"); v != "" {
		cfg.Paths.ExportsDir = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub(cfg.Server.SubscriberBacklog, logger)
	calc := lyrics.NewCalculator(cfg.Animation)
	documents := editor.NewRegistry(logger)

	if cfg.Redis.Enabled {
		st, err := store.New(ctx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.Prefix, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		hub.SetStore(st)
		documents.SetStore(st)

		if err := hub.Restore(ctx); err != nil {
			logger.Warnw("Failed to restore live state", "error", err)
		}
		if _, err := documents.Restore(ctx); err != nil {
			logger.Warnw("Failed to restore editor documents", "error", err)
		}
	}

	exporter := realtime.NewExporter(cfg.Paths.ExportsDir, cfg.Paths.CoversDir)
	adapter := realtime.NewAdapter(hub, exporter, calc, logger)
	wsServer := realtime.NewServer(cfg.Server.WSAddr, cfg.Server.MaxMessageBytes, adapter, logger)

	httpServer := server.New(cfg.Server.HTTPAddr, server.Deps{
		Hub:        hub,
		Calculator: calc,
		Documents:  documents,
		Convert:    convertOptions(),
		SongsDir:   cfg.Paths.SongsDir,
	}, logger)
	httpServer.KeepAlive = time.Duration(cfg.Server.KeepAliveSeconds) * time.Second

	logger.Infow("Starting lysync",
		"http_addr", cfg.Server.HTTPAddr,
		"ws_addr", cfg.Server.WSAddr,
		"songs_dir", cfg.Paths.SongsDir,
		"redis", cfg.Redis.Enabled,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return wsServer.ListenAndServe(gctx) })
	g.Go(func() error { return httpServer.ListenAndServe(gctx) })

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	logger.Infow("Shut down cleanly")
	return nil
}
