package main

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fatesmith/fatesmith/collection"
)

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var newCmd = &cobra.Command{
	Use:   "new [namespace]",
	Short: "Scaffold a starter collection file",
	Long: `Create a starter collection file with a sample table, template and
shared variable. With no namespace argument, you will be prompted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var namespace string
		if len(args) == 1 {
			namespace = args[0]
		} else {
			prompt := &survey.Input{
				Message: "Collection namespace:",
				Help:    "Letters, numbers, dashes and underscores only",
			}
			if err := survey.AskOne(prompt, &namespace, survey.WithValidator(survey.Required)); err != nil {
				return err
			}
		}
		if !nameRe.MatchString(namespace) {
			return fmt.Errorf("namespace can only contain letters, numbers, dashes and underscores")
		}

		var name string
		if err := survey.AskOne(&survey.Input{
			Message: "Display name:",
			Default: namespace,
		}, &name); err != nil {
			return err
		}

		path := namespace + ".json"
		if _, err := os.Stat(path); err == nil {
			overwrite := false
			if err := survey.AskOne(&survey.Confirm{
				Message: fmt.Sprintf("%s exists; overwrite?", path),
			}, &overwrite); err != nil {
				return err
			}
			if !overwrite {
				return fmt.Errorf("aborted")
			}
		}

		doc := starterCollection(namespace, name)
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return err
		}

		color.New(color.FgGreen).Printf("Created %s\n", path)
		fmt.Printf("Try: fatesmith roll '{{encounter}}' --namespace %s\n", namespace)
		return nil
	},
}

func starterCollection(namespace, name string) *collection.Collection {
	w3 := 3.0
	return &collection.Collection{
		Metadata: collection.Metadata{
			Name:      name,
			Namespace: namespace,
			Version:   "0.1.0",
		},
		Tables: []collection.Table{
			{
				ID:   "creature",
				Name: "Creature",
				Type: collection.TableSimple,
				Entries: []collection.Entry{
					{Value: "goblin", Weight: &w3, Sets: map[string]string{"size": "small"}},
					{Value: "ogre", Sets: map[string]string{"size": "large"}},
					{Value: "wolf", Sets: map[string]string{"size": "medium"}},
				},
			},
		},
		Templates: []collection.Template{
			{
				ID:      "encounter",
				Name:    "Encounter",
				Pattern: "You encounter {{dice:1d4}} {{creature}} after {{$travel}} hours on the road.",
			},
		},
		Shared: []collection.SharedVariable{
			{Name: "travel", Value: "{{dice:2d6}}"},
		},
	}
}
