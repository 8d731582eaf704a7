package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tatianab/saga/internal/config"
	"github.com/tatianab/saga/internal/logging"
	"github.com/tatianab/saga/internal/tui"
)

var (
	playSession string
	playGenre   string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal UI",
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playSession, "session", tui.DefaultSession,
		"Session to resume and autosave to")
	playCmd.Flags().StringVar(&playGenre, "genre", "",
		"Genre for a new session: fantasy, scifi, reality, custom")
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	// The UI owns the terminal, so logs only go to a file.
	logger := zap.NewNop()
	if cfg.LogFile != "" {
		if logger, err = logging.New(cfg.LogLevel, cfg.LogFile, false); err != nil {
			return err
		}
	}
	defer logger.Sync()

	feed := tui.NewFeed()
	s, err := openSession(cmd.Context(), cfg, sessionOptions{
		name:     playSession,
		genre:    playGenre,
		logger:   logger,
		onUpdate: feed.OnUpdate,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	return tui.Run(tui.Options{
		Engine:  s.engine,
		Feed:    feed,
		Store:   s.store,
		Session: playSession,
	})
}
