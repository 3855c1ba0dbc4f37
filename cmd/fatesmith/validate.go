package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fatesmith/fatesmith/collection"
	"github.com/fatesmith/fatesmith/engine/evalerr"
	"github.com/fatesmith/fatesmith/internal/cli/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Validate collection documents",
	Long: `Validate collection files against the document schema: required
metadata, table integrity (weight/range exclusivity, range partitions,
extends targets), import aliases and shared variable declarations.

With no arguments, every collection under the configured collections
directory is validated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		files := args
		if len(files) == 0 {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			found, err := collectionFiles(cfg.CollectionsDir)
			if err != nil {
				return err
			}
			files = found
		}
		if len(files) == 0 {
			return fmt.Errorf("nothing to validate")
		}

		ok := color.New(color.FgGreen)
		bad := color.New(color.FgRed, color.Bold)
		failures := 0
		for _, path := range files {
			_, err := collection.LoadFile(path)
			if err == nil {
				ok.Printf("✓ %s\n", path)
				continue
			}
			failures++
			bad.Printf("✗ %s\n", path)
			if list, isList := err.(evalerr.List); isList {
				for _, e := range list {
					fmt.Printf("    %s\n", e)
				}
			} else {
				fmt.Printf("    %s\n", err)
			}
		}
		if failures > 0 {
			return fmt.Errorf("%d of %d files failed validation", failures, len(files))
		}
		return nil
	},
}

func collectionFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
