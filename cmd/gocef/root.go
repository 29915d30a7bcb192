package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zaroxh/gocef/release"
)

var rootCmd = &cobra.Command{
	Use:           "gocef",
	Short:         "Install and inspect CEF native bundles",
	Long:          "Resolve, download, and install platform-specific CEF native bundles from release manifests.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagConfig  string
	flagDir     string
	flagCache   string
	flagVerbose bool
	flagQuiet   bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Install directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagCache, "cache-dir", "", "Download cache directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")

	rootCmd.AddCommand(installCmd, resolveCmd, statusCmd, versionCmd)
}

// fileConfig is the on-disk YAML configuration. Flags override it
// field by field.
type fileConfig struct {
	InstallDir string `yaml:"install_dir"`
	CacheDir   string `yaml:"cache_dir"`
	Release    struct {
		Owner    string `yaml:"owner"`
		Repo     string `yaml:"repo"`
		Tag      string `yaml:"tag"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"release"`
	Custom struct {
		Endpoint string `yaml:"endpoint"`
		// Script is a Lua resolve hook run against the endpoint body.
		Script string `yaml:"script"`
	} `yaml:"custom"`
	Verify struct {
		Checksum bool   `yaml:"checksum"`
		Keyring  string `yaml:"keyring"`
	} `yaml:"verify"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gocef", "config.yaml")
}

// loadConfig reads the YAML file (explicit flag path, or the default
// location when present) and applies flag overrides.
func loadConfig() (*fileConfig, error) {
	cfg := &fileConfig{}

	path := flagConfig
	if path == "" {
		path = defaultConfigPath()
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if flagDir != "" {
		cfg.InstallDir = flagDir
	}
	if flagCache != "" {
		cfg.CacheDir = flagCache
	}
	if cfg.InstallDir == "" {
		return nil, fmt.Errorf("install directory not set; use --dir or install_dir in the config file")
	}
	return cfg, nil
}

func (c *fileConfig) source() release.Source {
	return release.Source{
		Owner:    c.Release.Owner,
		Repo:     c.Release.Repo,
		Tag:      c.Release.Tag,
		Endpoint: c.Release.Endpoint,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gocef %s\n", Version)
	},
}
