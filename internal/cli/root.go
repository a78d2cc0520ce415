package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"agent-bundles/internal/app"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "AGENT_BUNDLES"

type RootConfig struct {
	ConfigFile  string
	LogLevel    string
	ProjectRoot string
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := newRootCommand()
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", errorMessage(err))
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:           "agent-bundles",
		Short:         "Install assistant agent bundles across a restart boundary",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	cmd.PersistentFlags().StringVar(&cfg.ProjectRoot, "project-root", ".", "Project root directory")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("project_root", cmd.PersistentFlags().Lookup("project-root"))
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(err.Error()).
			WithCause(err)
	})

	cmd.AddCommand(newSetupCommand())
	cmd.AddCommand(newResumeCommand())
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newValidateMappingsCommand())
	cmd.AddCommand(newListAgentsCommand())
	cmd.AddCommand(newPruneCommand())
	return cmd
}

func initConfig(configFile string) error {
	setConfigDefaults()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("agent-bundles")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/agent-bundles")
	if err := viper.ReadInConfig(); err != nil {
		log.Debug().Err(err).Msg("no config file loaded")
	}
	return nil
}

func setConfigDefaults() {
	defaults := app.DefaultConfig()
	viper.SetDefault("project_root", defaults.ProjectRoot)
	viper.SetDefault("state_dir", defaults.StateDir)
	viper.SetDefault("install_dir", defaults.InstallDir)
	viper.SetDefault("base_url", defaults.BaseURL)
	viper.SetDefault("max_workers", defaults.MaxWorkers)
	viper.SetDefault("fetch_timeout_sec", defaults.FetchTimeoutSec)
	viper.SetDefault("fetch_retries", defaults.FetchRetries)
	viper.SetDefault("strict", defaults.Strict)
	viper.SetDefault("gate.marker_max_age", defaults.MarkerMaxAge)
	viper.SetDefault("metrics_file", "")
}

// loadAppConfig reads the service configuration from viper. Unset keys keep
// the service defaults.
func loadAppConfig() app.Config {
	cfg := app.DefaultConfig()
	if value := strings.TrimSpace(viper.GetString("project_root")); value != "" {
		cfg.ProjectRoot = value
	}
	if value := strings.TrimSpace(viper.GetString("state_dir")); value != "" {
		cfg.StateDir = value
	}
	if value := strings.TrimSpace(viper.GetString("install_dir")); value != "" {
		cfg.InstallDir = value
	}
	if value := strings.TrimSpace(viper.GetString("base_url")); value != "" {
		cfg.BaseURL = value
	}
	if value := viper.GetInt("max_workers"); value > 0 {
		cfg.MaxWorkers = value
	}
	if value := viper.GetInt("fetch_timeout_sec"); value > 0 {
		cfg.FetchTimeoutSec = value
	}
	if viper.IsSet("fetch_retries") {
		cfg.FetchRetries = viper.GetInt("fetch_retries")
	}
	if viper.IsSet("strict") {
		cfg.Strict = viper.GetBool("strict")
	}
	if value := viper.GetDuration("gate.marker_max_age"); value > 0 {
		cfg.MarkerMaxAge = value
	}
	cfg.MetricsFile = strings.TrimSpace(viper.GetString("metrics_file"))
	return cfg
}

func newAppService() app.Service {
	return app.NewService(loadAppConfig())
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// exitCodeForError maps usage errors to 2. Every other failure, including a
// blocked gate, fatal gateway fetch or unknown installation id, is 1.
func exitCodeForError(err error) int {
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument:
		return 2
	default:
		return 1
	}
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
