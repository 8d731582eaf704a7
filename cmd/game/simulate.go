package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tatianab/saga/internal/config"
	"github.com/tatianab/saga/internal/engine"
	"github.com/tatianab/saga/internal/logging"
	"github.com/tatianab/saga/internal/models"
)

var (
	simulateTurns   int
	simulateSession string
	simulateGenre   string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play headless, always choosing the first suggested action",
	Args:  cobra.NoArgs,
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().IntVarP(&simulateTurns, "turns", "n", 5,
		"Number of chat turns to play")
	simulateCmd.Flags().StringVar(&simulateSession, "session", "",
		"Save the result under this session name")
	simulateCmd.Flags().StringVar(&simulateGenre, "genre", "",
		"Genre: fantasy, scifi, reality, custom")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simulateTurns < 0 {
		return fmt.Errorf("turns must not be negative")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFile, cfg.LogFile == "")
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	s, err := openSession(ctx, cfg, sessionOptions{genre: simulateGenre, logger: logger})
	if err != nil {
		return err
	}
	defer s.Close()

	sim := &simulation{engine: s.engine, out: cmd.OutOrStdout(), logger: logger}
	runErr := sim.run(ctx, simulateTurns)

	if simulateSession != "" {
		if err := s.store.Save(context.WithoutCancel(ctx), simulateSession, s.engine.State()); err != nil {
			return fmt.Errorf("save %s: %w", simulateSession, err)
		}
		fmt.Fprintf(sim.out, "\nSaved as %s.\n", simulateSession)
	}
	if runErr != nil && s.engine.IsAbortError(runErr) {
		fmt.Fprintln(sim.out, "\nInterrupted.")
		return nil
	}
	return runErr
}

// simulation drives an engine without a UI and prints what happens.
type simulation struct {
	engine *engine.Engine
	out    io.Writer
	logger *zap.Logger
	// printed is the number of events already written to out.
	printed int
}

func (sim *simulation) run(ctx context.Context, turns int) error {
	for sim.engine.State().View != models.ViewChat {
		if err := sim.engine.Advance(ctx, "", sim.progress); err != nil {
			return err
		}
		sim.describe(sim.engine.State())
	}

	for turn := 1; turn <= turns; turn++ {
		// The opening turn has no suggestions and narrates without an action.
		action := ""
		if doc := sim.engine.State(); len(doc.Actions) > 0 {
			action = doc.Actions[0]
		}
		fmt.Fprintf(sim.out, "\n--- Turn %d ---\n", turn)
		if err := sim.engine.Advance(ctx, action, sim.progress); err != nil {
			return err
		}
		sim.printEvents(sim.engine.State())
	}
	return nil
}

func (sim *simulation) progress(title, _ string, tokens int) {
	sim.logger.Debug("progress", zap.String("step", title), zap.Int("tokens", tokens))
}

// describe prints what the wizard step that just finished produced.
func (sim *simulation) describe(doc *models.State) {
	switch doc.View {
	case models.ViewGenre:
		fmt.Fprintf(sim.out, "Connected to %s\n", doc.APIURL)
	case models.ViewScenario:
		fmt.Fprintf(sim.out, "\nWorld: %s\n%s\n", doc.World.Name, doc.World.Description)
		fmt.Fprintf(sim.out, "\nProtagonist: %s (%s %s)\n%s\n",
			doc.Protagonist.Name, doc.Protagonist.Race, doc.Protagonist.Gender, doc.Protagonist.Biography)
	case models.ViewChat:
		sim.printEvents(doc)
	}
}

func (sim *simulation) printEvents(doc *models.State) {
	for _, e := range doc.Events[min(sim.printed, len(doc.Events)):] {
		switch e := e.(type) {
		case *models.ActionEvent:
			fmt.Fprintf(sim.out, "> %s\n", e.Action)
		case *models.NarrationEvent:
			fmt.Fprintf(sim.out, "\n%s\n", e.Text)
		case *models.LocationChangeEvent:
			if loc, ok := location(doc, e.LocationIndex); ok {
				fmt.Fprintf(sim.out, "\n== %s ==\n%s\n", loc.Name, loc.Description)
			}
		case *models.CharacterIntroductionEvent:
			if e.CharacterIndex < len(doc.Characters) {
				fmt.Fprintf(sim.out, "(You meet %s.)\n", doc.Characters[e.CharacterIndex].Name)
			}
		case *models.InventoryChangeEvent:
			for _, item := range e.Gained {
				fmt.Fprintf(sim.out, "(+ %s)\n", item.Name)
			}
			for _, item := range e.Lost {
				fmt.Fprintf(sim.out, "(- %s)\n", item.Name)
			}
		}
	}
	sim.printed = len(doc.Events)
}

func location(doc *models.State, i int) (models.Location, bool) {
	if i < 0 || i >= len(doc.Locations) {
		return models.Location{}, false
	}
	return doc.Locations[i], true
}
