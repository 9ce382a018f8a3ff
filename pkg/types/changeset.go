package types

// ModifiedExtension carries the before and after values of an extension whose
// non-identity fields changed between two snapshots.
type ModifiedExtension struct {
	Code   string    `json:"code" yaml:"code"`
	Before Extension `json:"before" yaml:"before"`
	After  Extension `json:"after" yaml:"after"`
}

// ModifiedDID carries the before and after values of a changed inbound number.
type ModifiedDID struct {
	Number string        `json:"number" yaml:"number"`
	Before InboundNumber `json:"before" yaml:"before"`
	After  InboundNumber `json:"after" yaml:"after"`
}

// MemberStateChange records a queue member that stayed in the queue but
// switched between active and paused.
type MemberStateChange struct {
	ExtensionRef string      `json:"extension_ref" yaml:"extension_ref"`
	From         MemberState `json:"from" yaml:"from"`
	To           MemberState `json:"to" yaml:"to"`
}

// MembershipDelta decomposes a queue modification into member-level items so
// a report can say "agent X was paused" instead of a blanket "queue changed".
type MembershipDelta struct {
	Added        []QueueMember       `json:"added" yaml:"added"`
	Removed      []QueueMember       `json:"removed" yaml:"removed"`
	StateChanges []MemberStateChange `json:"state_changes" yaml:"state_changes"`
}

// IsEmpty reports whether the delta carries no member-level items. A queue
// modification with an empty delta means only member ordering or the
// internal id changed.
func (d MembershipDelta) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.StateChanges) == 0
}

// ModifiedQueue carries the before and after values of a changed queue plus
// its membership delta.
type ModifiedQueue struct {
	Name   string          `json:"name" yaml:"name"`
	Before Queue           `json:"before" yaml:"before"`
	After  Queue           `json:"after" yaml:"after"`
	Delta  MembershipDelta `json:"delta" yaml:"delta"`
}

// ChangeSet is the structured result of diffing two snapshots. It is the
// single source of truth for every renderer and notifier: none of them
// re-derive comparison logic.
type ChangeSet struct {
	CurrentDate  string `json:"current_date" yaml:"current_date"`
	PreviousDate string `json:"previous_date,omitempty" yaml:"previous_date,omitempty"`
	IsFirstRun   bool   `json:"is_first_run" yaml:"is_first_run"`

	ExtensionsAdded    []Extension         `json:"extensions_added" yaml:"extensions_added"`
	ExtensionsRemoved  []Extension         `json:"extensions_removed" yaml:"extensions_removed"`
	ExtensionsModified []ModifiedExtension `json:"extensions_modified" yaml:"extensions_modified"`

	DIDsAdded    []InboundNumber `json:"dids_added" yaml:"dids_added"`
	DIDsRemoved  []InboundNumber `json:"dids_removed" yaml:"dids_removed"`
	DIDsModified []ModifiedDID   `json:"dids_modified" yaml:"dids_modified"`

	QueuesAdded    []Queue         `json:"queues_added" yaml:"queues_added"`
	QueuesRemoved  []Queue         `json:"queues_removed" yaml:"queues_removed"`
	QueuesModified []ModifiedQueue `json:"queues_modified" yaml:"queues_modified"`
}

// HasChanges reports whether at least one of the nine change lists is
// non-empty. It is always false on a first run.
func (c *ChangeSet) HasChanges() bool {
	return len(c.ExtensionsAdded) > 0 || len(c.ExtensionsRemoved) > 0 || len(c.ExtensionsModified) > 0 ||
		len(c.DIDsAdded) > 0 || len(c.DIDsRemoved) > 0 || len(c.DIDsModified) > 0 ||
		len(c.QueuesAdded) > 0 || len(c.QueuesRemoved) > 0 || len(c.QueuesModified) > 0
}

// KindSummary holds change counts for one entity kind.
type KindSummary struct {
	Added    int `json:"added" yaml:"added"`
	Removed  int `json:"removed" yaml:"removed"`
	Modified int `json:"modified" yaml:"modified"`
}

// Total returns the number of changes of this kind across all categories.
func (k KindSummary) Total() int {
	return k.Added + k.Removed + k.Modified
}

// Summary holds the per-kind change counts notifiers use to build subject
// lines.
type Summary struct {
	Extensions KindSummary `json:"extensions" yaml:"extensions"`
	DIDs       KindSummary `json:"dids" yaml:"dids"`
	Queues     KindSummary `json:"queues" yaml:"queues"`
}

// Total returns the number of changes across all kinds and categories.
func (s Summary) Total() int {
	return s.Extensions.Total() + s.DIDs.Total() + s.Queues.Total()
}

// Summary computes the aggregate counts on demand; the change lists stay the
// only stored state.
func (c *ChangeSet) Summary() Summary {
	return Summary{
		Extensions: KindSummary{
			Added:    len(c.ExtensionsAdded),
			Removed:  len(c.ExtensionsRemoved),
			Modified: len(c.ExtensionsModified),
		},
		DIDs: KindSummary{
			Added:    len(c.DIDsAdded),
			Removed:  len(c.DIDsRemoved),
			Modified: len(c.DIDsModified),
		},
		Queues: KindSummary{
			Added:    len(c.QueuesAdded),
			Removed:  len(c.QueuesRemoved),
			Modified: len(c.QueuesModified),
		},
	}
}
