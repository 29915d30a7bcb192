package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zaroxh/gocef/platform"
	"github.com/zaroxh/gocef/release"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the bundle URL for the current platform",
	Long:  "Resolve the release manifest and print the artifact URL that install would download, without downloading it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		url, err := resolveURL(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		fmt.Println(url)
		return nil
	},
}

// resolveURL picks the artifact URL the way the library does: a Lua
// resolve hook against a custom endpoint when configured, the release
// manifest resolver otherwise.
func resolveURL(ctx context.Context, cfg *fileConfig) (string, error) {
	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return "", err
	}
	if flagVerbose {
		fmt.Fprintf(os.Stderr, "platform: %s\n", info)
	}

	client := release.NewClient(nil)

	if cfg.Custom.Endpoint != "" {
		script, err := os.ReadFile(cfg.Custom.Script)
		if err != nil {
			return "", fmt.Errorf("read resolve script: %w", err)
		}
		return client.ResolveCustom(ctx, cfg.Custom.Endpoint, release.LuaTransform(string(script), info))
	}

	src := cfg.source()
	if src.Owner == "" || src.Repo == "" {
		return "", fmt.Errorf("release owner and repo not set in config")
	}
	manifest, err := client.Fetch(ctx, src)
	if err != nil {
		return "", err
	}
	return release.Resolve(manifest, info)
}
