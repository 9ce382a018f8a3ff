package report

import (
	"gopkg.in/yaml.v3"

	"github.com/telaudit/pbxaudit/internal/resolver"
	"github.com/telaudit/pbxaudit/pkg/types"
)

// YAMLFormatter emits YAML, mostly for eyeballing diffs in a terminal with
// less noise than JSON.
type YAMLFormatter struct{}

type yamlChangeSet struct {
	ChangeSet  types.ChangeSet `yaml:",inline"`
	HasChanges bool            `yaml:"has_changes"`
	Summary    types.Summary   `yaml:"summary"`
}

// ChangeSet implements Formatter.
func (f *YAMLFormatter) ChangeSet(cs *types.ChangeSet) ([]byte, error) {
	return yaml.Marshal(yamlChangeSet{
		ChangeSet:  *cs,
		HasChanges: cs.HasChanges(),
		Summary:    cs.Summary(),
	})
}

// Snapshot implements Formatter.
func (f *YAMLFormatter) Snapshot(s *types.Snapshot, _ *resolver.Resolver) ([]byte, error) {
	return yaml.Marshal(s)
}
