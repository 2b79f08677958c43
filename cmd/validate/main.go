package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gnemet/gridview/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: gridview-validate <config_path1> [config_path2] ...")
		os.Exit(1)
	}

	allValid := true
	for _, path := range os.Args[1:] {
		problems, err := validateFile(path)
		if err != nil {
			fmt.Printf("❌ Error validating %s: %v\n", filepath.Base(path), err)
			allValid = false
			continue
		}

		if len(problems) == 0 {
			fmt.Printf("✅ %s is valid.\n", filepath.Base(path))
		} else {
			fmt.Printf("❌ %s is invalid!\n", filepath.Base(path))
			for _, p := range problems {
				fmt.Printf("   - %s\n", p)
			}
			allValid = false
		}
	}

	if !allValid {
		os.Exit(1)
	}
}

// validateFile checks an options file and the columns of every grid it
// defines.
func validateFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	var problems []string
	if err := config.ValidateOptions(doc); err != nil {
		problems = append(problems, split(err)...)
		return problems, nil
	}

	o, err := config.Parse(data)
	if err != nil {
		return nil, err
	}
	for id, grid := range o.Grids {
		for i, c := range grid.Columns {
			if err := config.ValidateColumn(c); err != nil {
				for _, p := range split(err) {
					problems = append(problems, fmt.Sprintf("grids.%s.columns[%d]: %s", id, i, p))
				}
			}
		}
	}
	return problems, nil
}

func split(err error) []string {
	msg := err.Error()
	if _, rest, ok := strings.Cut(msg, ": "); ok {
		msg = rest
	}
	return strings.Split(msg, "; ")
}
