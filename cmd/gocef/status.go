package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zaroxh/gocef/install"
	"github.com/zaroxh/gocef/platform"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installation state and platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		info, err := platform.NewDetector().Detect(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Platform:  %s\n", info)
		if info.Distro != "" {
			fmt.Printf("Distro:    %s %s\n", info.Distro, info.DistroVersion)
		}
		fmt.Printf("Directory: %s\n", cfg.InstallDir)
		if install.Installed(cfg.InstallDir) {
			fmt.Println("State:     installed")
		} else {
			fmt.Println("State:     not installed")
		}
		return nil
	},
}
