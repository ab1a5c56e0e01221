package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HaiFongPan/furryfriends-cli/internal/api"
	"github.com/HaiFongPan/furryfriends-cli/internal/config"
	"github.com/HaiFongPan/furryfriends-cli/internal/tui"
	"github.com/HaiFongPan/furryfriends-cli/internal/tui/image"
)

// imageCacheBytes bounds the on-disk cache of downloaded gallery images
const imageCacheBytes int64 = 200 * 1024 * 1024

var (
	cfgFile      string
	verbose      bool
	quiet        bool
	startPath    string
	globalConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "furryfriends",
	Short: "A terminal client for the FurryFriends pet photo site",
	Long: `furryfriends is a terminal client for a FurryFriends server.
Browse the gallery, look at full-size photos, log in and upload pictures of your pets
from an interactive screen, or use the one-shot commands from scripts.

Example usage:
  furryfriends                       # Interactive client
  furryfriends --open /gallery       # Start on the gallery
  furryfriends login alice
  furryfriends upload rex.jpg --caption "Rex at the beach"
  furryfriends gallery --mine`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// When called without subcommands, enter the interactive client
		return runInteractive(startPath)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/furryfriends/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "enable quiet mode")

	rootCmd.Flags().StringVar(&startPath, "open", "/", "page to open first (/, /gallery, /images, /login, /register)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	var err error
	globalConfig, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogging()

	return nil
}

// setupLogging configures the global logger based on config and flags
func setupLogging() {
	level := globalConfig.Log.Level
	if verbose {
		level = "debug"
	} else if quiet {
		level = "error"
	}

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("Invalid log level %s, using info", level)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)

	// Redirect all logs to file to prevent UI interference
	logFile := globalConfig.Log.File
	if logFile == "" {
		logFile = filepath.Join(config.StateDir(), "app.log")
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		logrus.Warnf("Failed to create log directory %s: %v", filepath.Dir(logFile), err)
	} else {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logrus.Warnf("Failed to open log file %s: %v", logFile, err)
		} else {
			logrus.SetOutput(file)
		}
	}

	if globalConfig.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: quiet,
			FullTimestamp:    verbose,
		})
	}
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return globalConfig
}

// newSessionClient creates an API client carrying the cookies saved for the configured server
func newSessionClient(cfg *config.Config) (*api.Client, *config.UserData, error) {
	client, err := api.NewClient(&cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}

	userData, err := config.LoadUserData()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user data: %w", err)
	}
	client.RestoreCookies(userData.SessionFor(client.BaseURL()))

	return client, userData, nil
}

// saveSession persists the client's current cookies
func saveSession(client *api.Client, userData *config.UserData) {
	if err := userData.SetSession(client.BaseURL(), client.Cookies()); err != nil {
		logrus.WithError(err).Warn("failed to save session")
	}
}

// runInteractive runs the interactive client starting on path
func runInteractive(path string) error {
	cfg := globalConfig

	client, userData, err := newSessionClient(cfg)
	if err != nil {
		return err
	}

	images := image.NewImageManager(
		filepath.Join(config.CacheDir(), "images"),
		imageCacheBytes,
		cfg.UI.ImagePreviewMethod,
		cfg.RequestTimeout(),
	)

	model := tui.NewModel(cfg, client, images, tui.Options{
		StartPath: path,
		Username:  userData.LastUsername,
	})

	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Set program reference in model for direct messaging
	model.SetProgram(program)

	_, err = program.Run()

	saveSession(client, userData)
	if name := model.LastUsername(); name != "" && name != userData.LastUsername {
		if err := userData.SetLastUsername(name); err != nil {
			logrus.WithError(err).Warn("failed to save last username")
		}
	}
	return err
}
