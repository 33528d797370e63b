package main

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput || path == "" {
		_, err := stdout.Write(data)
		return err
	}

	return os.WriteFile(path, data, FilePermissions)
}

// loadData decodes render parameters from an inline string or a file.
// YAML is accepted, which covers JSON.
func loadData(inline, filePath string, stdin io.Reader) (map[string]any, error) {
	var raw []byte

	if filePath != "" {
		data, err := readInput(filePath, stdin)
		if err != nil {
			return nil, err
		}
		raw = data
	} else if inline != "" {
		raw = []byte(inline)
	} else {
		return make(map[string]any), nil
	}

	result := make(map[string]any)
	if err := yaml.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return result, nil
}
