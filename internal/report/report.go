// Package report renders change sets and snapshots for operators. All
// renderers read the ChangeSet produced by the differ; none of them
// re-derive comparison logic.
package report

import (
	"fmt"

	"github.com/telaudit/pbxaudit/internal/resolver"
	"github.com/telaudit/pbxaudit/pkg/types"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON, FormatYAML, FormatMarkdown:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported output format %q (table, json, yaml, markdown)", s)
	}
}

// Formatter renders the two report subjects. The resolver supplies display
// names for queue member references; machine formats ignore it.
type Formatter interface {
	ChangeSet(cs *types.ChangeSet) ([]byte, error)
	Snapshot(s *types.Snapshot, names *resolver.Resolver) ([]byte, error)
}

// NewFormatter returns the formatter for a format.
func NewFormatter(format Format) (Formatter, error) {
	switch format {
	case FormatTable:
		return &TableFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatMarkdown:
		return &MarkdownFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
