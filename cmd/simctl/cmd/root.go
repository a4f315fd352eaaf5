package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/GoCodeAlone/modsim"
	"github.com/GoCodeAlone/modsim/feeders"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// EnvPrefix prefixes every environment variable read by simctl.
const EnvPrefix = "MODSIM_"

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// PrintVersion prints version information
func PrintVersion() string {
	return fmt.Sprintf("simctl v%s (commit: %s, built on: %s)", Version, Commit, Date)
}

type globalOptions struct {
	configFile string
	envFile    string
	logLevel   string
}

// NewRootCommand creates the root command for the simctl application
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "simctl",
		Short: "simctl - run and inspect modsim simulations",
		Long: `simctl builds a simulator from a configuration file, runs it with the
metrics, inspection and schedule models and optionally serves its state over HTTP.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Config file (.yaml, .yml, .toml or .json)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Dotenv file with "+EnvPrefix+"* variables")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level, overrides the config: debug, info, warn or error")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newSampleConfigCommand())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), PrintVersion())
		},
	})

	return cmd
}

// loadConfig feeds the config file, the dotenv file and the environment, in
// that order, then applies the log level flag.
func (o *globalOptions) loadConfig() (*modsim.Config, error) {
	var fs []modsim.ConfigFeeder
	if o.configFile != "" {
		f, err := fileFeeder(o.configFile)
		if err != nil {
			return nil, err
		}
		fs = append(fs, f)
	}
	if o.envFile != "" {
		df := feeders.NewDotEnvFeeder(o.envFile)
		df.Prefix = EnvPrefix
		fs = append(fs, df)
	}
	fs = append(fs, feeders.NewAffixedEnvFeeder(EnvPrefix))

	cfg, err := modsim.LoadConfig(fs...)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}

func fileFeeder(path string) (modsim.ConfigFeeder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return feeders.NewYamlFeeder(path), nil
	case ".toml":
		return feeders.NewTomlFeeder(path), nil
	case ".json":
		return feeders.NewJSONFeeder(path), nil
	default:
		return nil, fmt.Errorf("%w: %s", modsim.ErrUnsupportedFormatType, path)
	}
}

func newLogger(cfg *modsim.Config, cmd *cobra.Command) *modsim.LogrusLogger {
	l := logrus.New()
	l.SetOutput(cmd.ErrOrStderr())
	l.SetLevel(modsim.ParseLogLevel(cfg.LogLevel))
	return modsim.NewLogrusLogger(l)
}
