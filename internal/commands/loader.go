// Package commands turns a command list into argument vectors.
package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/me/mcp/pkg/model"
	"gopkg.in/yaml.v3"
)

// LoadFile reads the command list at path. Files ending in .yaml or .yml are
// parsed as a YAML sequence; anything else is one command per line.
func LoadFile(path string) ([]model.Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read commands %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Load(strings.NewReader(string(data)))
	}
}

// Load reads one command per line. Blank lines and lines starting with '#'
// are skipped; arguments are separated by runs of whitespace.
func Load(r io.Reader) ([]model.Command, error) {
	var cmds []model.Command
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmds = append(cmds, model.Command{Line: line, Argv: Split(line)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan commands: %w", err)
	}
	return cmds, nil
}

// Split breaks a command line into its argument vector.
func Split(line string) []string {
	return strings.Fields(line)
}

// ParseYAML parses a YAML sequence whose items are either a command line
// string or a list of arguments:
//
//   - sleep 1
//   - [sh, -c, "echo hello; sleep 2"]
func ParseYAML(data []byte) ([]model.Command, error) {
	var raw []yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}

	cmds := make([]model.Command, 0, len(raw))
	for i := range raw {
		node := &raw[i]
		switch node.Kind {
		case yaml.ScalarNode:
			line := strings.TrimSpace(node.Value)
			if line == "" {
				continue
			}
			cmds = append(cmds, model.Command{Line: line, Argv: Split(line)})
		case yaml.SequenceNode:
			var argv []string
			if err := node.Decode(&argv); err != nil {
				return nil, fmt.Errorf("line %d: %w", node.Line, err)
			}
			if len(argv) == 0 || argv[0] == "" {
				return nil, fmt.Errorf("line %d: %w", node.Line, model.ErrEmptyCommand)
			}
			cmds = append(cmds, model.Command{Line: strings.Join(argv, " "), Argv: argv})
		default:
			return nil, fmt.Errorf("line %d: command must be a string or a list of strings", node.Line)
		}
	}
	return cmds, nil
}
