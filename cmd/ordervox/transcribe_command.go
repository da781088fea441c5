package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ordervox/internal/audio"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Process a single audio clip without the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read audio file: %w", err)
			}
			format := audio.ParseFormat(strings.TrimPrefix(filepath.Ext(args[0]), "."))

			comps, err := buildComponents(cfg)
			if err != nil {
				return err
			}
			defer comps.close()

			result, err := comps.pipeline.Process(cmd.Context(), data, format)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, result)
			}

			fmt.Fprintf(out, "Transcript: %s\n", result.TranscriptionText)
			for _, item := range result.Items {
				fmt.Fprintf(out, "  %d x %s\n", item.Quantity, item.Name)
			}
			fmt.Fprintf(out, "Cost: $%.4f (cached: %s, optimized: %s)\n",
				result.Cost, yesNo(result.Cached), yesNo(result.Optimized))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the result as JSON")
	return cmd
}
