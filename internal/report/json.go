package report

import (
	"encoding/json"

	"github.com/telaudit/pbxaudit/internal/resolver"
	"github.com/telaudit/pbxaudit/pkg/types"
)

// JSONFormatter emits pretty-printed JSON for scripting consumers.
type JSONFormatter struct{}

type changeSetEnvelope struct {
	*types.ChangeSet
	HasChanges bool          `json:"has_changes"`
	Summary    types.Summary `json:"summary"`
}

// ChangeSet implements Formatter. The derived flag and counts are included
// so consumers do not recompute them.
func (f *JSONFormatter) ChangeSet(cs *types.ChangeSet) ([]byte, error) {
	envelope := changeSetEnvelope{
		ChangeSet:  cs,
		HasChanges: cs.HasChanges(),
		Summary:    cs.Summary(),
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Snapshot implements Formatter.
func (f *JSONFormatter) Snapshot(s *types.Snapshot, _ *resolver.Resolver) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
