package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fatesmith/fatesmith/internal/cli/config"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded collections and their tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cfg.CollectionsDir)
		if err != nil {
			return err
		}

		header := color.New(color.Bold)
		dim := color.New(color.Faint)
		for _, doc := range reg.List() {
			header.Printf("%s (%s)\n", doc.Metadata.Name, doc.Metadata.Namespace)
			for _, t := range doc.Tables {
				if t.Hidden && !listAll {
					continue
				}
				fmt.Printf("  table    %-24s", t.ID)
				dim.Printf(" %s", t.Type)
				if t.Hidden {
					dim.Print(" hidden")
				}
				fmt.Println()
			}
			for _, tpl := range doc.Templates {
				fmt.Printf("  template %s\n", tpl.ID)
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listAll, "all", false, "include hidden tables")
}
