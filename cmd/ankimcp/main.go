// Command ankimcp runs the local-first spaced-repetition flashcard engine
// as an MCP tool server over stdio, with an optional local HTTP mirror for
// debugging (spec.md §6).
//
// Grounded on justinlyon12-AnCLI/cmd/ancli/main.go and cmd/ancli/root.go's
// single cobra root command with persistent flags bound into viper before
// config.Load resolves them.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/Gxrco/Anki-MCP/internal/config"
	"github.com/Gxrco/Anki-MCP/internal/store"
	"github.com/Gxrco/Anki-MCP/internal/toolserver"
	"github.com/Gxrco/Anki-MCP/internal/toolserver/httpmirror"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var httpAddr string

func main() {
	os.Exit(run())
}

func run() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "ankimcp",
		Short: "A local-first spaced-repetition flashcard engine exposed over MCP",
		Long: `ankimcp stores decks, notes, and cards in a local SQLite file and exposes a
tool-calling surface (create_deck, add_note, get_next_card, answer_card, search_cards, import/export,
and bulk card-state management) over newline-delimited JSON on stdio, with a local HTTP mirror for
debugging the same tool surface with curl.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(v, cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("db-path", "", "path to the SQLite database file")
	flags.String("media-dir", "", "path to the media blob directory")
	flags.Bool("readonly", false, "refuse mutating tool calls")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&httpAddr, "http-addr", "", "optional address to serve the HTTP tool mirror on, e.g. :8090")

	_ = v.BindPFlag("db_path", flags.Lookup("db-path"))
	_ = v.BindPFlag("media_dir", flags.Lookup("media-dir"))
	_ = v.BindPFlag("readonly", flags.Lookup("readonly"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))

	return cmd
}

func serve(v *viper.Viper, cmd *cobra.Command) error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("prepare data directories: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database at %s: %w", cfg.DBPath, err)
	}
	defer st.Close()

	svc := toolserver.New(st)
	dispatcher := toolserver.NewDispatcher(svc, cfg.Readonly, logger)

	if httpAddr != "" {
		go func() {
			logger.Info("serving http tool mirror", "addr", httpAddr)
			if err := http.ListenAndServe(httpAddr, httpmirror.NewRouter(dispatcher)); err != nil {
				logger.Error("http mirror stopped", "error", err)
			}
		}()
	}

	logger.Info("ankimcp ready", "dbPath", cfg.DBPath, "readonly", cfg.Readonly)
	if err := toolserver.ServeStdio(dispatcher, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}
