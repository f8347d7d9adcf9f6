package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"smartclassroom/internal/assistant"
	"smartclassroom/internal/models"
	"smartclassroom/internal/simulator"
)

var (
	snapshotTicks  int
	snapshotSeed   uint64
	snapshotFormat string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the simulated classroom state",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().IntVar(&snapshotTicks, "ticks", 0, "Advance the simulation this many ticks first")
	snapshotCmd.Flags().Uint64Var(&snapshotSeed, "seed", 0, "Seed the simulation (0 picks a random seed)")
	snapshotCmd.Flags().StringVarP(&snapshotFormat, "output", "o", "json", "Output format: json or yaml")
}

type snapshotView struct {
	Sensors         models.SensorReading      `json:"sensors" yaml:"sensors"`
	Engagement      models.EngagementSnapshot `json:"engagement" yaml:"engagement"`
	DominantEmotion models.Emotion            `json:"dominantEmotion" yaml:"dominantEmotion"`
	History         []models.ChartPoint       `json:"history" yaml:"history"`
	Forecast        []models.ChartPoint       `json:"forecast" yaml:"forecast"`
	Ticks           uint64                    `json:"ticks" yaml:"ticks"`
}

func newSnapshotView(store *simulator.Store) snapshotView {
	snap := store.Snapshot()
	return snapshotView{
		Sensors:         snap.Sensors,
		Engagement:      snap.Engagement,
		DominantEmotion: assistant.DominantEmotion(snap.Engagement.EmotionBreakdown),
		History:         store.History(),
		Forecast:        store.Forecast(),
		Ticks:           store.Ticks(),
	}
}

func writeSnapshot(w io.Writer, v snapshotView, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	return writeSnapshot(cmd.OutOrStdout(), newSnapshotView(simulate(snapshotTicks, snapshotSeed)), snapshotFormat)
}
