package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cinevoice/internal/output"
)

func NewStartCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Walk through a ticket purchase",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := deps.App

			if err := a.Start(ctx); err != nil {
				return err
			}
			defer a.Close()

			a.Logger.Info("starting ticket flow",
				"audio_source", deps.Config.Audio.Source,
				"backend", deps.Config.Backend.BaseURL,
			)

			purchase, err := a.Flow(cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					output.NewFormatter(cmd.OutOrStdout()).Info("Hasta luego")
					return nil
				}
				return fmt.Errorf("running ticket flow: %w", err)
			}

			a.Logger.Info("ticket flow finished", "movie", purchase.Movie)
			return nil
		},
	}
}
