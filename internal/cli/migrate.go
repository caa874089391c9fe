package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) migrateCommand() *cobra.Command {
	var down, version bool
	cmd := &cobra.Command{
		Use:     "migrate",
		GroupID: "admin",
		Short:   "Apply database migrations",
		Long: `Apply every pending migration. --down reverts the most recent one and
--version prints the current schema version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url := a.cfg.Database.URL
			switch {
			case version:
				v, dirty, err := a.migrator.Version(url)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "version %d", v)
				if dirty {
					fmt.Fprint(a.out, " (dirty)")
				}
				fmt.Fprintln(a.out)
				return nil
			case down:
				if err := a.migrator.Down(url); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "reverted one migration")
				return nil
			}
			if err := a.migrator.Up(url); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "revert the most recent migration")
	cmd.Flags().BoolVar(&version, "version", false, "print the schema version")
	cmd.MarkFlagsMutuallyExclusive("down", "version")
	return cmd
}
