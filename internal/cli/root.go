package cli

import (
	"github.com/spf13/cobra"

	"cinevoice/config"
	"cinevoice/internal/app"
)

type Dependencies struct {
	App    *app.App
	Config *config.Config

	// Init loads the config at path and wires App before a command runs.
	// required is false when the path is the default one.
	Init func(path string, required bool) error
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "cinevoice",
		Short:        "Voice-assisted movie ticketing",
		Long:         "Pick a movie, food and seats and pay for them by typing or speaking. Press Enter on an empty line to answer by voice.",
		SilenceUsage: true,
	}

	var configPath string
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if deps.Init == nil || deps.App != nil {
			return nil
		}
		return deps.Init(configPath, cmd.Flags().Changed("config"))
	}

	rootCmd.AddCommand(NewStartCmd(deps))
	rootCmd.AddCommand(NewListenCmd(deps))
	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewInterpretCmd())
	rootCmd.AddCommand(NewSessionCmd(deps))
	rootCmd.AddCommand(NewClipsCmd(deps))

	return rootCmd
}
