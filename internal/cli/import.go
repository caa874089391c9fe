package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/lanes/internal/config"
	"github.com/JonMunkholm/lanes/internal/core"
)

type importFlags struct {
	profile string
	file    string
	actor   string
}

func (f *importFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "import profile key (see 'rosterctl profiles')")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "CSV file to import, - for stdin")
	cmd.Flags().StringVar(&f.actor, "actor", "", "identity recorded on audit entries")
	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("file")
}

func (a *App) previewCommand() *cobra.Command {
	var f importFlags
	cmd := &cobra.Command{
		Use:     "preview",
		GroupID: "import",
		Short:   "Show what an import would change without writing",
		Example: `  rosterctl preview --profile lanes --file lanes.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runImport(cmd, f, core.ModePreview)
		},
	}
	f.bind(cmd)
	return cmd
}

func (a *App) commitCommand() *cobra.Command {
	var f importFlags
	cmd := &cobra.Command{
		Use:     "commit",
		GroupID: "import",
		Short:   "Apply an import in a single transaction",
		Long: `Apply an import. Nothing is written when the file has conflicting
duplicate rows or the roster has blocking warnings.`,
		Example: `  rosterctl commit --profile scores --file week3.csv --actor desk`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runImport(cmd, f, core.ModeCommit)
		},
	}
	f.bind(cmd)
	return cmd
}

func (a *App) importCommand() *cobra.Command {
	var (
		f    importFlags
		mode string
	)
	cmd := &cobra.Command{
		Use:     "import",
		GroupID: "import",
		Short:   "Preview or commit an import, chosen by --mode",
		Example: `  rosterctl import --mode commit --profile lanes --file lanes.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, ok := core.ParseMode(mode)
			if !ok {
				return fmt.Errorf("unknown mode %q: want %s or %s", mode, core.ModePreview, core.ModeCommit)
			}
			return a.runImport(cmd, f, m)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&mode, "mode", string(core.ModePreview), "preview or commit")
	return cmd
}

func (a *App) runImport(cmd *cobra.Command, f importFlags, mode core.Mode) error {
	ctx := cmd.Context()

	profile, err := core.Lookup(f.profile)
	if err != nil {
		return err
	}
	in, err := a.readInput(cmd, f.file)
	if err != nil {
		return err
	}
	in.Profile = profile
	in.Actor = f.actor
	if in.Actor == "" {
		in.Actor = a.cfg.Import.DefaultActor
	}

	policy, err := config.LoadPolicy(a.policyFile)
	if err != nil {
		return err
	}
	engine := core.NewEngine(policy.Core())

	backend, err := a.connect(ctx)
	if err != nil {
		return err
	}

	var out *core.Outcome
	if mode == core.ModeCommit {
		err = backend.InTx(ctx, func(store core.Store) error {
			var err error
			out, err = engine.Commit(ctx, store, in)
			return err
		})
	} else {
		out, err = engine.Preview(ctx, backend.Roster(), in)
	}
	if out != nil {
		if werr := a.writeOutcome(out); werr != nil {
			return werr
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
	}
	return nil
}

func (a *App) readInput(cmd *cobra.Command, path string) (core.Input, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return core.Input{}, err
		}
		defer file.Close()
		r = file
	}
	headers, rows, err := core.ReadCSV(r, a.cfg.Import.MaxRows)
	if err != nil {
		return core.Input{}, err
	}
	return core.Input{Headers: headers, Rows: rows}, nil
}

func (a *App) writeOutcome(out *core.Outcome) error {
	if a.format == "json" {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			ImportID  string              `json:"import_id"`
			Profile   string              `json:"profile"`
			Mode      core.Mode           `json:"mode"`
			Stage     core.Stage          `json:"stage"`
			Summary   core.ImportOutcome  `json:"summary"`
			Matched   []core.MatchedRow   `json:"matched"`
			Unmatched []core.UnmatchedRow `json:"unmatched"`
		}{out.ImportID, out.Profile, out.Mode, out.Stage, out.Summary(), out.Matched, out.Unmatched})
	}

	s := out.Summary()
	fmt.Fprintf(a.out, "%s %s (%s): matched %d, unmatched %d, updated %d, skipped %d\n",
		out.Mode, out.Profile, out.Stage, s.MatchedCount, s.UnmatchedCount, s.Updated, s.Skipped)
	for _, m := range out.Matched {
		for _, c := range m.Changes {
			fmt.Fprintf(a.out, "  line %d %s %s: %s -> %s\n",
				m.Line, m.PID, c.Field, display(c.Old), display(c.New))
		}
	}
	for _, u := range out.Unmatched {
		fmt.Fprintf(a.out, "  line %d unmatched: %s\n", u.Line, u.Reason)
	}
	for _, w := range s.Warnings {
		tag := "warning"
		if w.Blocking {
			tag = "BLOCKING"
		}
		fmt.Fprintf(a.out, "  %s: %s\n", tag, w.Message)
	}
	return nil
}

func display(s *string) string {
	if s == nil {
		return "(empty)"
	}
	return *s
}

func (a *App) profilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "profiles",
		GroupID: "import",
		Short:   "List import profiles and the columns they accept",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, p := range core.All() {
				fmt.Fprintf(a.out, "%-12s %s\n", p.Key, p.Label)
				for _, f := range p.Fields() {
					fmt.Fprintf(a.out, "  %s\n", f)
				}
			}
			return nil
		},
	}
}
