package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"smartclassroom/internal/assistant"
	"smartclassroom/internal/simulator"
)

var (
	askTicks int
	askSeed  uint64
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant one question about a freshly simulated classroom",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askTicks, "ticks", 0, "Advance the simulation this many ticks first")
	askCmd.Flags().Uint64Var(&askSeed, "seed", 0, "Seed the simulation (0 picks a random seed)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question must not be empty")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Assistant.Timeout+shutdownTimeout)
	defer cancel()

	gateway, err := assistant.NewFromConfig(ctx, cfg.Assistant, logger.Named("assistant"))
	if err != nil {
		return err
	}
	store := simulate(askTicks, askSeed)

	reply := gateway.Respond(ctx, question, assistant.ContextFromSnapshot(store.Snapshot()))
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}

// simulate builds a store and advances it ticks times without a timer.
func simulate(ticks int, seed uint64) *simulator.Store {
	opts := []simulator.Option{simulator.WithLogger(logger.Named("simulator"))}
	if seed != 0 {
		opts = append(opts, simulator.WithSeed(seed, seed))
	}
	store := simulator.New(opts...)
	for range ticks {
		store.Tick()
	}
	return store
}
