package cmd

import (
	"context"
	"io"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cube2222/vtable/app"
	"github.com/cube2222/vtable/config"
	"github.com/cube2222/vtable/datasources"
	"github.com/cube2222/vtable/functions"
	"github.com/cube2222/vtable/logical"
	"github.com/cube2222/vtable/logs"
)

const defaultConfigPath = "~/.vtable/config.yaml"

var settings = viper.New()

var profiler interface{ Stop() }

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vtable",
	Short: "Run lazy table pipelines over csv, json and arrow sources.",
	Example: `vtable run --config pipelines/config.yaml
vtable explain --dot | dot -Tpng > plan.png
vtable aggregate sum --columns 2`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dir := settings.GetString("cpuprofile"); dir != "" {
			profiler = profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.Quiet)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if profiler != nil {
			profiler.Stop()
		}
		_ = logs.Sync()
	},
}

func Execute(ctx context.Context) {
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

func init() {
	rootCmd.PersistentFlags().String("config", defaultConfigPath, "Configuration file with sources and output settings.")
	rootCmd.PersistentFlags().String("log-level", "", "Log level, overrides the configuration file.")
	rootCmd.PersistentFlags().String("cpuprofile", "", "Write a CPU profile to this directory.")

	settings.SetEnvPrefix("VTABLE")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	for _, name := range []string{"config", "log-level", "cpuprofile"} {
		cobra.CheckErr(settings.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)))
	}
}

// newApp reads the configuration, sets up logging and creates the app writing to out.
func newApp(out io.Writer) (*app.App, *config.Config, error) {
	path, err := homedir.Expand(settings.GetString("config"))
	if err != nil {
		return nil, nil, errors.Wrap(err, "couldn't expand config path")
	}
	cfg, err := config.ReadConfig(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "couldn't read config %s", path)
	}
	if err := initLogging(cfg); err != nil {
		return nil, nil, err
	}

	registry := logical.NewRegistry()
	functions.Register(registry)
	return app.NewApp(cfg, datasources.DefaultRepository(), registry, out), cfg, nil
}

func initLogging(cfg *config.Config) error {
	level, err := config.GetString(cfg.Logging, "level", config.WithDefault("warn"))
	if err != nil {
		return errors.Wrap(err, "couldn't get log level")
	}
	if flagLevel := settings.GetString("log-level"); flagLevel != "" {
		level = flagLevel
	}
	if dir, err := config.GetString(cfg.Logging, "dir"); err == nil {
		return logs.InitializeFileLogger(cfg.ResolvePath(dir), level)
	}
	development, err := config.GetBool(cfg.Logging, "development", config.WithDefault(false))
	if err != nil {
		return errors.Wrap(err, "couldn't get development logging setting")
	}
	encoding, err := config.GetString(cfg.Logging, "encoding", config.WithDefault("console"))
	if err != nil {
		return errors.Wrap(err, "couldn't get log encoding")
	}
	return logs.Init(logs.Config{
		Level:       level,
		Development: development,
		Encoding:    encoding,
	})
}

// openPipeline opens the pipeline given as the only argument, or the configured one.
// Command line overrides are applied to the configuration through configure.
func openPipeline(cmd *cobra.Command, args []string, configure func(cfg *config.Config)) (*app.App, *app.Pipeline, error) {
	application, cfg, err := newApp(cmd.OutOrStdout())
	if err != nil {
		return nil, nil, err
	}
	if configure != nil {
		configure(cfg)
	}
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	node, err := application.LoadPipeline(path)
	if err != nil {
		return nil, nil, err
	}
	pipeline, err := application.Open(node)
	if err != nil {
		return nil, nil, err
	}
	return application, pipeline, nil
}

func closePipeline(pipeline *app.Pipeline, outErr *error) {
	if err := pipeline.Close(); err != nil && *outErr == nil {
		*outErr = err
	}
}
