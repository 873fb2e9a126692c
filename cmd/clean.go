package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nerith/photofold/config"
	"github.com/spf13/cobra"
)

// cleanCmd removes dead share links, expired login devices and stale temp
// archives.
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean dead share links, expired sessions and temp files",
	Run: func(cmd *cobra.Command, args []string) {
		retention, _ := cmd.Flags().GetDuration("retention")
		tempOnly, _ := cmd.Flags().GetBool("temp-only")

		if err := runClean(retention, tempOnly); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Duration("retention", 30*24*time.Hour, "keep revoked/expired links younger than this")
	cleanCmd.Flags().Bool("temp-only", false, "only clean temp files")
}

func runClean(retention time.Duration, tempOnly bool) error {
	config.InitConfig()
	cfg := config.Get()

	var deadLinks, expiredDevices int64

	if !tempOnly {
		container, err := newDatabaseContainer()
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer container.Close()

		deadLinks, err = container.ShareLinksRepo.DeleteDead(retention)
		if err != nil {
			return fmt.Errorf("failed to delete dead share links: %w", err)
		}

		expiredDevices, err = container.DevicesRepo.DeleteExpired()
		if err != nil {
			return fmt.Errorf("failed to delete expired devices: %w", err)
		}
	}

	tempFiles, err := cleanTempFiles(cfg.TempDir)
	if err != nil {
		return err
	}

	fmt.Printf("Dead share links deleted: %d\n", deadLinks)
	fmt.Printf("Expired devices deleted:  %d\n", expiredDevices)
	fmt.Printf("Temp files deleted:       %d\n", tempFiles)
	return nil
}

func cleanTempFiles(tempDir string) (int, error) {
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read temp directory: %w", err)
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(tempDir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("Warning: failed to delete temp file %s: %v", entry.Name(), err)
			continue
		}
		deleted++
	}
	return deleted, nil
}
