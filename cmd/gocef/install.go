package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zaroxh/gocef/install"
	"github.com/zaroxh/gocef/internal/archive"
	"github.com/zaroxh/gocef/internal/fetch"
	"github.com/zaroxh/gocef/internal/verify"
	"github.com/zaroxh/gocef/platform"
)

var flagForce bool

func init() {
	installCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Reinstall even when already installed")
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download and install the native bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if flagForce {
			if err := install.Reset(cfg.InstallDir); err != nil {
				return err
			}
		}
		if install.Installed(cfg.InstallDir) {
			fmt.Printf("Already installed in %s\n", cfg.InstallDir)
			return nil
		}

		info, err := platform.NewDetector().Detect(ctx)
		if err != nil {
			return err
		}

		var resolved string
		runCfg := install.Config{
			Dir: cfg.InstallDir,
			Resolve: func(ctx context.Context) (string, error) {
				url, err := resolveURL(ctx, cfg)
				if err == nil {
					resolved = url
				}
				return url, err
			},
			Downloader: fetch.NewDownloader(nil, cacheDir(cfg)),
			Extractor:  archive.NewExtractor(),
			Platform:   info,
			Logger:     newStderrLogger(flagVerbose),
		}
		if cfg.Verify.Checksum {
			runCfg.Verifier = verify.New(nil, func() string { return resolved }, cfg.Verify.Keyring)
		}
		if !flagQuiet {
			runCfg.Progress = terminalProgress(os.Stdout)
		}

		if err := install.Run(ctx, runCfg); err != nil {
			return err
		}
		fmt.Printf("Installed in %s\n", cfg.InstallDir)
		return nil
	},
}

func cacheDir(cfg *fileConfig) string {
	if cfg.CacheDir != "" {
		return cfg.CacheDir
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return os.TempDir()
	}
	return dir + string(os.PathSeparator) + "gocef"
}
