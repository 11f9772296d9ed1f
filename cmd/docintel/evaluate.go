package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/docintel/internal/evaluate"
)

var evaluateTruthDir string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <predicted-dir>",
	Short: "Score predicted outlines and check them for multilingual issues",
	Long: `Evaluate every .json outline in the predicted directory. Each report lists
heading counts, detected title languages and script issues. With --truth,
outlines are matched by file name and scored for heading precision, recall
and F1.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateTruthDir, "truth", "", "directory of ground-truth outlines")
}

type evaluation struct {
	Summary evaluate.Summary  `json:"summary"`
	Reports []evaluate.Report `json:"documents"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	f, err := parseFormat(outputFormat)
	if err != nil {
		return err
	}
	reports, err := evaluate.Dirs(args[0], evaluateTruthDir)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), f, evaluation{
		Summary: evaluate.Summarize(reports),
		Reports: reports,
	})
}
