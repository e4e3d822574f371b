package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vocdoc/vocdoc/internal/config"
	"github.com/vocdoc/vocdoc/pkg/builder"
	"github.com/vocdoc/vocdoc/pkg/render"
)

// Check failure sentinels. Warnings fail the check only in strict mode.
var (
	ErrCheckFailed       = errors.New("check failed")
	ErrCheckFailedStrict = errors.New("check failed in strict mode")
)

// CheckCommand holds configuration for the check command.
type CheckCommand struct {
	configPath string
	pkgName    string
	namespace  string
	include    []string
	exclude    []string
	workers    int
	noColor    bool
	strict     bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cc := &CheckCommand{}

	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Cross-reference packages and report problems",
		Long: `Check runs the full build pipeline without writing documentation,
reporting syntax errors, conflicts and broken references. The exit
code is non-zero when errors are found, or, with --strict, when any
diagnostic at all is found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: cc.run,
	}

	cmd.Flags().StringVar(&cc.configPath, "config", "", "Config file path (default: .vocdoc.yaml in CWD or $HOME)")
	cmd.Flags().StringVar(&cc.pkgName, "package", "", "Package name (default: directory basename)")
	cmd.Flags().StringVar(&cc.namespace, "namespace", "", "Namespace for unqualified names (default: user)")
	cmd.Flags().StringSliceVar(&cc.include, "include", nil, "Include globs over package-relative paths")
	cmd.Flags().StringSliceVar(&cc.exclude, "exclude", nil, "Exclude globs (take precedence over include)")
	cmd.Flags().IntVar(&cc.workers, "workers", 0, "Number of parallel workers (0 = use CPU count)")
	cmd.Flags().BoolVar(&cc.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&cc.strict, "strict", false, "Fail on warnings as well as errors")

	return cmd
}

func (cc *CheckCommand) run(cmd *cobra.Command, args []string) error {
	opts, err := cc.assemble(args)
	if err != nil {
		return err
	}

	result, err := builder.Build(cmd.Context(), opts)
	if err != nil {
		return err
	}

	summary := render.NewSummary(cmd.OutOrStdout(), cc.noColor)
	if err := summary.Render(result.Model, result.Report); err != nil {
		return err
	}

	errs, warns := result.Report.Counts()

	switch {
	case errs > 0:
		return fmt.Errorf("%w: %d errors", ErrCheckFailed, errs)
	case cc.strict && warns > 0:
		return fmt.Errorf("%w: %d warnings", ErrCheckFailedStrict, warns)
	}

	return nil
}

func (cc *CheckCommand) assemble(args []string) (builder.Options, error) {
	cfg, err := config.Load(cc.configPath)
	if err != nil {
		return builder.Options{}, err
	}

	opts := builder.Options{
		Include: append(cfg.Build.Include, cc.include...),
		Exclude: append(cfg.Build.Exclude, cc.exclude...),
		Workers: cfg.Build.Workers,
	}

	if cc.workers > 0 {
		opts.Workers = cc.workers
	}

	switch {
	case len(args) > 0:
		opts.Packages = []builder.PackageSpec{{Dir: args[0], Name: cc.pkgName, Namespace: cc.namespace}}
	case len(cfg.Packages) > 0:
		for _, pkg := range cfg.Packages {
			opts.Packages = append(opts.Packages, builder.PackageSpec{
				Dir:       pkg.Dir,
				Name:      pkg.Name,
				Namespace: pkg.Namespace,
			})
		}
	default:
		opts.Packages = []builder.PackageSpec{{Dir: ".", Name: cc.pkgName, Namespace: cc.namespace}}
	}

	return opts, nil
}
