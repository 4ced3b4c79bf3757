package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/harwell/strata/internal/app"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// options collects every flag value before validation.
type options struct {
	configPath  string
	grid        string
	out         string
	format      string
	stacks      []string
	contextKVs  []string
	contextFile string
	jobs        int
	logLevel    string
	logFormat   string

	v *viper.Viper
}

// New builds the root command with the synth and diff subcommands wired to
// the given streams.
func New(outW, errW io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "strata",
		Short: "Deterministic stack document synthesizer for HCL-defined infrastructure",
		Long: `strata loads HCL stack definitions, resolves deferred values and
cross-stack references, and synthesizes one deployable document per stack
plus a manifest describing deploy order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (default ./strata.yaml, or STRATA_CONFIG)")
	pf.StringVarP(&opts.grid, "grid", "g", "", "Path to an .hcl file or a directory of .hcl files")
	pf.StringVarP(&opts.out, "out", "o", "strata.out", "Directory for synthesized documents and the manifest")
	pf.StringVar(&opts.format, "format", "json", "Document encoding. Options: 'json' or 'yaml'")
	pf.StringSliceVar(&opts.stacks, "stack", nil, "Only operate on stacks matching this glob (repeatable)")
	pf.StringArrayVar(&opts.contextKVs, "context", nil, "Context value as key=value (repeatable)")
	pf.StringVar(&opts.contextFile, "context-file", "", "YAML file of context key/value pairs")
	pf.IntVar(&opts.jobs, "jobs", 0, "Max stacks resolved concurrently. 0 means one goroutine per stack")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level. Options: 'debug', 'info', 'warn', 'error'")
	pf.StringVar(&opts.logFormat, "log-format", "json", "Log output format. Options: 'text' or 'json'")

	synthCmd := newSynthCommand(opts)
	diffCmd := newDiffCommand(opts)
	root.AddCommand(synthCmd, diffCmd)

	opts.v = newViper()
	root.PersistentPreRunE = func(*cobra.Command, []string) error {
		return bindViper(opts, root, synthCmd, diffCmd)
	}
	return root
}

func newSynthCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "synth",
		Short: "Synthesize stack documents and a manifest to the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.buildConfig()
			if err != nil {
				return err
			}
			a := app.NewApp(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
			return a.Synth(cmd.Context())
		},
	}
}

func newDiffCommand(opts *options) *cobra.Command {
	var against string
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Diff a fresh synthesis against a previous output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.buildConfig()
			if err != nil {
				return err
			}
			dir := against
			if dir == "" {
				dir = cfg.OutDir
			}
			a := app.NewApp(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
			drifted, err := a.Diff(cmd.Context(), dir)
			if err != nil {
				return err
			}
			if drifted {
				return &ExitError{Code: 1, Message: fmt.Sprintf("documents drifted from %s", dir)}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&against, "against", "", "Previous output directory to diff against (defaults to --out)")
	return cmd
}

// buildConfig validates flag values and assembles the application
// configuration. Validation failures carry exit code 2, marking them as
// usage errors.
func (o *options) buildConfig() (*app.Config, error) {
	logFormat := strings.ToLower(o.logFormat)
	if logFormat != "text" && logFormat != "json" {
		return nil, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(o.logLevel)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if o.grid == "" {
		return nil, &ExitError{Code: 2, Message: "a grid path is required: pass --grid or set STRATA_GRID"}
	}

	contextArgs, err := app.ParseContextArgs(o.contextKVs)
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	var fileContext map[string]string
	if o.contextFile != "" {
		fileContext, err = app.LoadContextFile(o.contextFile)
		if err != nil {
			return nil, &ExitError{Code: 2, Message: err.Error()}
		}
	}
	var configContext map[string]string
	if o.v != nil {
		configContext = o.v.GetStringMapString("context")
	}

	cfg, err := app.NewConfig(app.Config{
		SourcePath: o.grid,
		OutDir:     o.out,
		Format:     strings.ToLower(o.format),
		Stacks:     o.stacks,
		Context:    app.MergeContext(configContext, fileContext, contextArgs),
		Jobs:       o.jobs,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
	})
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("STRATA")
	v.AutomaticEnv()
	return v
}

// bindViper layers STRATA_* environment variables and the optional config
// file under the flag values. Explicitly set flags always win; unset flags
// are backfilled from viper before the command body runs. The config file
// location itself comes from --config or STRATA_CONFIG, so binding has to
// happen after flag parsing.
func bindViper(opts *options, commands ...*cobra.Command) error {
	v := opts.v
	for _, cmd := range commands {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
			return err
		}
	}

	configFile := opts.configPath
	if configFile == "" {
		configFile = os.Getenv("STRATA_CONFIG")
	}
	configureConfigFile(v, configFile)
	if err := readConfigFile(v, configFile != ""); err != nil {
		return err
	}

	for _, cmd := range commands {
		for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				if f.Changed {
					return
				}
				if !v.IsSet(f.Name) {
					return
				}
				val, ok := flagValueString(v.Get(f.Name))
				if ok && val != "" {
					_ = f.Value.Set(val)
				}
			})
		}
	}
	return nil
}

// flagValueString renders a viper value in a form pflag can parse.
// Map-valued keys have no flag form; buildConfig reads those from viper
// directly.
func flagValueString(val any) (string, bool) {
	switch tv := val.(type) {
	case map[string]any:
		return "", false
	case []any:
		parts := make([]string, len(tv))
		for i, item := range tv {
			parts[i] = fmt.Sprintf("%v", item)
		}
		return strings.Join(parts, ","), true
	default:
		return fmt.Sprintf("%v", tv), true
	}
}

func configureConfigFile(v *viper.Viper, explicitPath string) {
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		return
	}
	v.SetConfigName("strata")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
}

// readConfigFile tolerates a missing config file unless one was requested
// explicitly.
func readConfigFile(v *viper.Viper, strict bool) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && !strict {
			return nil
		}
		return err
	}
	return nil
}
