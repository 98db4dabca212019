package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/luxfi/walletscan/configs"
	"github.com/luxfi/walletscan/pkg/application"
	"github.com/luxfi/walletscan/pkg/logging"
)

var (
	// Version information (set by ldflags)
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Execute runs the root command until it finishes or the process is
// interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := application.New()
	defer app.Close()

	return newRootCmd(app).ExecuteContext(ctx)
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(application.New())
}

func newRootCmd(app *application.App) *cobra.Command {
	var configFile string

	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "walletscan",
		Short: "Wallet key pool scanner and balance checker",
		Long: `Extract the public keys from the key pool of a legacy wallet.dat file,
derive their addresses and report the balance they hold.`,
		Version:       fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, configFile); err != nil {
				return err
			}
			return initializeApp(app, v)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is ./walletscan.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "also write JSON logs to this file")
	flags.String("base-dir", "", "base directory for walletscan data (default is ~/.walletscan)")
	flags.String("network", configs.DefaultNetwork, "network of the wallet ("+strings.Join(configs.NetworkNames(), ", ")+")")

	mustBind(v, "log.level", flags.Lookup("log-level"))
	mustBind(v, "log.file", flags.Lookup("log-file"))
	mustBind(v, "base_dir", flags.Lookup("base-dir"))
	mustBind(v, "network", flags.Lookup("network"))

	// Add commands
	rootCmd.AddCommand(NewBalanceCmd(app, v))
	rootCmd.AddCommand(NewKeysCmd(app))
	rootCmd.AddCommand(NewAddressesCmd(app))
	rootCmd.AddCommand(NewCacheCmd(app, v))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func initConfig(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("walletscan")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("WALLETSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func initializeApp(app *application.App, v *viper.Viper) error {
	// Set up base directory
	baseDir := v.GetString("base_dir")
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		baseDir = filepath.Join(homeDir, ".walletscan")
	}

	// Create base directory if it doesn't exist
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create base directory: %w", err)
	}

	network, err := configs.GetNetwork(v.GetString("network"))
	if err != nil {
		return err
	}

	// Initialize logger
	logger, closeLog, err := logging.NewLogger("walletscan", logging.Config{
		Level:      v.GetString("log.level"),
		File:       v.GetString("log.file"),
		MaxSizeMB:  v.GetInt("log.max_size_mb"),
		MaxBackups: v.GetInt("log.max_backups"),
	})
	if err != nil {
		return err
	}

	app.Setup(baseDir, logger, v, network)
	app.OnClose(closeLog)
	return nil
}

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
