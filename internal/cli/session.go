package cli

import (
	"github.com/spf13/cobra"
)

func NewSessionCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset the backend session",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current selection and total",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := deps.App.Backend.Session(cmd.Context())
			if err != nil {
				return err
			}
			deps.App.Formatter.Session(snapshot)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the selected movie, seats and food",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.App.Backend.ClearSession(cmd.Context()); err != nil {
				return err
			}
			deps.App.Formatter.Success("Sesión borrada")
			return nil
		},
	})

	return cmd
}

func NewClipsCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "clips",
		Short: "List archived recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := deps.App.Formatter
			if deps.App.Archive == nil {
				f.Info("Clip archive is disabled. Set archive.enabled in the config.")
				return nil
			}

			entries, err := deps.App.Archive.List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				f.Info("No clips found")
				return nil
			}
			for _, e := range entries {
				f.ClipEntry(e.Name, e.Size, e.ModTime)
			}
			return nil
		},
	}
}
