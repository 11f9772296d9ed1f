package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docintel/internal/layout"
)

type format string

const (
	formatJSON format = "json"
	formatYAML format = "yaml"
)

func parseFormat(s string) (format, error) {
	switch f := format(strings.ToLower(s)); f {
	case formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", s)
	}
}

// writeOutput encodes v as indented JSON or as YAML. YAML is produced from
// the JSON encoding so field names and key order match the JSON output.
func writeOutput(w io.Writer, f format, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if f == formatJSON {
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("convert to yaml: %w", err)
	}
	blockStyle(&node)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(&node)
}

// blockStyle clears the flow and quoting styles a JSON document decodes with.
// Strings that would otherwise read as another type keep their quotes.
func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		var probe any
		if err := yaml.Unmarshal([]byte(n.Value), &probe); err != nil || probe == nil {
			return
		}
		if _, ok := probe.(string); !ok {
			return
		}
	}
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// writeFile writes v to path in format f.
func writeFile(path string, f format, v any) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeOutput(out, f, v); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// expandInputs resolves args into supported document paths. Directories
// contribute their supported files, sorted by name; files are kept as given.
func expandInputs(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && layout.IsSupportedExtension(e.Name()) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, filepath.Join(arg, name))
		}
	}
	return out, nil
}
