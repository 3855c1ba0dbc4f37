package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fatesmith/fatesmith/engine/eval"
	"github.com/fatesmith/fatesmith/internal/cli/config"
	"github.com/fatesmith/fatesmith/internal/cli/ui"
)

var (
	rollNamespace string
	rollSeed      int64
	rollSeedSet   bool
	rollTrace     bool
	rollSegments  bool
	rollCount     int
	rollNoColor   bool
)

var rollCmd = &cobra.Command{
	Use:   "roll <pattern>",
	Short: "Evaluate a pattern against a loaded collection",
	Long: `Evaluate a pattern containing double-brace directives against the
collections found in the configured collections directory.

Examples:
  fatesmith roll '{{npc}}' --namespace fantasy
  fatesmith roll 'You meet {{3*goblin}} carrying {{dice:2d6}} coins' -n fantasy
  fatesmith roll '{{quest}}' -n fantasy --seed 42 --trace`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cfg.CollectionsDir)
		if err != nil {
			return err
		}

		namespace := rollNamespace
		if namespace == "" {
			nss := reg.Namespaces()
			if len(nss) != 1 {
				return fmt.Errorf("multiple collections loaded; pick one with --namespace (%v)", nss)
			}
			namespace = nss[0]
		}

		opts := eval.Options{EnableTrace: rollTrace}
		if rollSeedSet {
			seed := rollSeed
			opts.Seed = &seed
		}

		engine := eval.New(reg)
		for i := 0; i < rollCount; i++ {
			res := engine.EvaluateRawPattern(args[0], namespace, opts)
			ui.PrintResult(os.Stdout, res, rollNoColor)
			if res.Err != nil {
				if rollSegments {
					ui.PrintSegments(os.Stdout, res.Segments)
				}
				return fmt.Errorf("evaluation failed")
			}
			if rollTrace {
				ui.PrintTrace(os.Stdout, res.Trace, rollNoColor)
			}
			if rollSegments {
				ui.PrintSegments(os.Stdout, res.Segments)
			}
		}
		return nil
	},
}

func init() {
	rollCmd.Flags().StringVarP(&rollNamespace, "namespace", "n", "", "collection namespace to evaluate against")
	rollCmd.Flags().Int64Var(&rollSeed, "seed", 0, "fixed RNG seed for reproducible output")
	rollCmd.Flags().BoolVar(&rollTrace, "trace", false, "print the execution trace")
	rollCmd.Flags().BoolVar(&rollSegments, "segments", false, "print the position-mapped segments")
	rollCmd.Flags().IntVar(&rollCount, "count", 1, "number of times to evaluate the pattern")
	rollCmd.Flags().BoolVar(&rollNoColor, "no-color", false, "disable colored output")

	rollCmd.PreRun = func(cmd *cobra.Command, args []string) {
		rollSeedSet = cmd.Flags().Changed("seed")
	}
}
