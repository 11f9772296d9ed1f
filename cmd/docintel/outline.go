package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docintel/internal/app"
	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/pipeline"
)

var (
	outlineOutDir  string
	outlineNoCache bool
)

var outlineCmd = &cobra.Command{
	Use:   "outline <file-or-dir>...",
	Short: "Extract title, headings and tables from documents",
	Long: `Extract the title, H1-H3 outline and tables of each document.

With --out-dir every document gets <name>.json (or .yaml) in that directory.
Without it the outlines are printed keyed by document name. Unreadable
documents produce an empty outline rather than an error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOutline,
}

func init() {
	outlineCmd.Flags().StringVar(&outlineOutDir, "out-dir", "", "write one file per document into this directory")
	outlineCmd.Flags().BoolVar(&outlineNoCache, "no-cache", false, "do not read or write the outline store")
}

func runOutline(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	f, _ := parseFormat(outputFormat)

	files, err := expandInputs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported documents in %s", strings.Join(args, ", "))
	}

	services, err := app.Build(cfg, app.Options{NoStore: outlineNoCache}, log)
	if err != nil {
		return err
	}
	defer services.Close()

	inputs := pipeline.FileInputs(files...)
	outlines, err := services.Runner.Outlines(cmd.Context(), inputs)
	if err != nil {
		return err
	}

	if outlineOutDir == "" {
		byName := make(map[string]doctree.Outline, len(outlines))
		for i, o := range outlines {
			byName[inputs[i].Name] = o
		}
		return writeOutput(cmd.OutOrStdout(), f, byName)
	}

	if err := os.MkdirAll(outlineOutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for i, o := range outlines {
		path := filepath.Join(outlineOutDir, outputName(inputs[i].Name, f))
		if err := writeFile(path, f, o); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Info("outline written", "document", inputs[i].Name, "headings", len(o.Outline), "tables", len(o.Tables), "path", path)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d outline(s) to %s\n", len(outlines), outlineOutDir)
	return nil
}

// outputName replaces the document extension with the output format's.
func outputName(name string, f format) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + "." + string(f)
}
