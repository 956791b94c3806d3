package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"cinevoice/internal/output"
	"cinevoice/internal/voice"
)

func NewInterpretCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "interpret TEXT",
		Short: "Show how a transcription would be understood",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := contextFor(mode)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			output.NewFormatter(cmd.OutOrStdout()).Intent(text, voice.Interpret(text, c))
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(voice.ModeNavigation), "Interpretation mode: navigation or confirmation")

	return cmd
}
