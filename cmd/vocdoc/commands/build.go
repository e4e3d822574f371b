// Package commands implements CLI command handlers for vocdoc.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vocdoc/vocdoc/internal/config"
	"github.com/vocdoc/vocdoc/pkg/builder"
	"github.com/vocdoc/vocdoc/pkg/render"
)

// ErrUnknownFormat indicates a requested output format is not supported.
var ErrUnknownFormat = errors.New("unknown output format")

// starterConfig seeds a fresh output directory with a config file the
// user can move next to their packages and edit.
const starterConfig = `# vocdoc configuration. Place next to your packages or pass with --config.
packages:
  - dir: .
    # name: my-package        # default: directory basename
    # namespace: user         # default: user

build:
  include: []                 # doublestar globs, empty = all files
  exclude: []                 # exclude wins over include
  workers: 0                  # 0 = CPU count

output:
  dir: docs
  format: markdown            # markdown, json or yaml
`

// BuildCommand holds configuration for the build command.
type BuildCommand struct {
	configPath string
	pkgName    string
	namespace  string
	include    []string
	exclude    []string
	outDir     string
	format     string
	workers    int
	noColor    bool
	silent     bool
	noConfig   bool
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	bc := &BuildCommand{}

	cmd := &cobra.Command{
		Use:   "build [path]",
		Short: "Build documentation for one or more packages",
		Long: `Build scans the given directory (or the packages listed in the
config file), cross-references every declaration and writes the
documentation artifacts. Problems in individual files are reported
and never abort the build.`,
		Args: cobra.MaximumNArgs(1),
		RunE: bc.run,
	}

	cmd.Flags().StringVar(&bc.configPath, "config", "", "Config file path (default: .vocdoc.yaml in CWD or $HOME)")
	cmd.Flags().StringVar(&bc.pkgName, "package", "", "Package name (default: directory basename)")
	cmd.Flags().StringVar(&bc.namespace, "namespace", "", "Namespace for unqualified names (default: user)")
	cmd.Flags().StringSliceVar(&bc.include, "include", nil, "Include globs over package-relative paths")
	cmd.Flags().StringSliceVar(&bc.exclude, "exclude", nil, "Exclude globs (take precedence over include)")
	cmd.Flags().StringVarP(&bc.outDir, "out", "o", "", "Output directory (default: docs)")
	cmd.Flags().StringVar(&bc.format, "format", "", "Output format: markdown, json, yaml (default: markdown)")
	cmd.Flags().IntVar(&bc.workers, "workers", 0, "Number of parallel workers (0 = use CPU count)")
	cmd.Flags().BoolVar(&bc.noColor, "no-color", false, "Disable colored summary output")
	cmd.Flags().BoolVar(&bc.silent, "silent", false, "Disable the end-of-run summary")
	cmd.Flags().BoolVar(&bc.noConfig, "no-config", false, "Do not write a starter .vocdoc.yaml into the output directory")

	return cmd
}

func (bc *BuildCommand) run(cmd *cobra.Command, args []string) error {
	cfg, opts, err := bc.assemble(args)
	if err != nil {
		return err
	}

	result, err := builder.Build(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if err := bc.renderArtifacts(cfg, result); err != nil {
		return err
	}

	if !bc.noConfig {
		if err := writeStarterConfig(cfg.Output.Dir); err != nil {
			return err
		}
	}

	if !bc.silent {
		summary := render.NewSummary(cmd.ErrOrStderr(), bc.noColor)
		if err := summary.Render(result.Model, result.Report); err != nil {
			return err
		}
	}

	return nil
}

// assemble merges the config file with command-line overrides into
// builder options. A positional path builds exactly one package and
// ignores the config file's package list.
func (bc *BuildCommand) assemble(args []string) (*config.Config, builder.Options, error) {
	cfg, err := config.Load(bc.configPath)
	if err != nil {
		return nil, builder.Options{}, err
	}

	if bc.outDir != "" {
		cfg.Output.Dir = bc.outDir
	}

	if bc.format != "" {
		cfg.Output.Format = bc.format
	}

	if err := cfg.Validate(); err != nil {
		return nil, builder.Options{}, err
	}

	opts := builder.Options{
		Include: append(cfg.Build.Include, bc.include...),
		Exclude: append(cfg.Build.Exclude, bc.exclude...),
		Workers: cfg.Build.Workers,
	}

	if bc.workers > 0 {
		opts.Workers = bc.workers
	}

	switch {
	case len(args) > 0:
		opts.Packages = []builder.PackageSpec{{Dir: args[0], Name: bc.pkgName, Namespace: bc.namespace}}
	case len(cfg.Packages) > 0:
		for _, pkg := range cfg.Packages {
			opts.Packages = append(opts.Packages, builder.PackageSpec{
				Dir:       pkg.Dir,
				Name:      pkg.Name,
				Namespace: pkg.Namespace,
			})
		}
	default:
		opts.Packages = []builder.PackageSpec{{Dir: ".", Name: bc.pkgName, Namespace: bc.namespace}}
	}

	return cfg, opts, nil
}

// writeStarterConfig drops a commented .vocdoc.yaml next to the
// generated docs. An existing file is never overwritten.
func writeStarterConfig(dir string) error {
	path := filepath.Join(dir, ".vocdoc.yaml")

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("write starter config: %w", err)
	}

	return nil
}

func (bc *BuildCommand) renderArtifacts(cfg *config.Config, result *builder.Result) error {
	switch cfg.Output.Format {
	case config.FormatMarkdown:
		return render.NewMarkdownRenderer(cfg.Output.Dir).Render(result.Model, result.Report)
	case config.FormatJSON:
		return bc.renderToFile(cfg, "model.json", func(w io.Writer) render.Renderer {
			return render.NewJSONRenderer(w)
		}, result)
	case config.FormatYAML:
		return bc.renderToFile(cfg, "model.yaml", func(w io.Writer) render.Renderer {
			return render.NewYAMLRenderer(w)
		}, result)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, cfg.Output.Format)
	}
}

func (bc *BuildCommand) renderToFile(cfg *config.Config, name string, makeRenderer func(io.Writer) render.Renderer, result *builder.Result) error {
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(cfg.Output.Dir, name)

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	return makeRenderer(out).Render(result.Model, result.Report)
}
