package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cinevoice/internal/voice"
)

func NewListenCmd(deps *Dependencies) *cobra.Command {
	var (
		mode   string
		prompt string
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Listen for one voice command and print the intent",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := contextFor(mode)
			if err != nil {
				return err
			}

			a := deps.App
			if err := a.Start(cmd.Context()); err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Voice.Converse(cmd.Context(), prompt, c)
			if res.Clip != nil {
				a.Formatter.Clip(res.Clip)
			}
			if err != nil {
				return err
			}

			a.Formatter.Intent(res.Text, res.Intent)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(voice.ModeNavigation), "Interpretation mode: navigation or confirmation")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Prompt to speak before listening")

	return cmd
}

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record one clip until silence and optionally save it as WAV",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := deps.App
			if err := a.Start(cmd.Context()); err != nil {
				return err
			}
			defer a.Close()

			clip, err := a.Voice.Record(cmd.Context())
			if err != nil {
				return err
			}
			a.Formatter.Clip(clip)

			if out == "" {
				return nil
			}
			data, err := clip.WAV()
			if err != nil {
				return fmt.Errorf("encoding clip: %w", err)
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			a.Formatter.Success("Clip saved: " + out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the clip to this WAV file")

	return cmd
}

func contextFor(mode string) (voice.Context, error) {
	switch voice.Mode(mode) {
	case voice.ModeNavigation:
		return voice.NavigationContext("cli", ""), nil
	case voice.ModeConfirmation:
		return voice.ConfirmationContext("cli", ""), nil
	}
	return voice.Context{}, fmt.Errorf("unknown mode %q", mode)
}
