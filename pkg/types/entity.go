// Package types holds the canonical entity model shared by every stage of
// the audit pipeline: collectors produce it, storage persists it, the
// differ compares it and reports render it.
package types

// QueueState is the aggregate pause state of an extension across the queues
// it belongs to, as read from the portal's pause/resume controls.
type QueueState string

const (
	// QueueStateAllActive means the extension is active in every queue.
	QueueStateAllActive QueueState = "all_active"
	// QueueStateAllPaused means the extension is paused in every queue.
	QueueStateAllPaused QueueState = "all_paused"
	// QueueStateMixed means the extension is active in some queues and
	// paused in others.
	QueueStateMixed QueueState = "mixed"
	// QueueStateNone means the extension belongs to no queue.
	QueueStateNone QueueState = "no_queues"
	// QueueStateUnknown means the state indicators could not be read.
	QueueStateUnknown QueueState = "unknown"
)

// IsValid reports whether the state is one of the known values.
func (q QueueState) IsValid() bool {
	switch q {
	case QueueStateAllActive, QueueStateAllPaused, QueueStateMixed, QueueStateNone, QueueStateUnknown:
		return true
	}
	return false
}

// MemberState is one member's pause state inside a single queue.
type MemberState string

const (
	MemberActive  MemberState = "active"
	MemberPaused  MemberState = "paused"
	MemberUnknown MemberState = "unknown"
)

// Extension is one internal extension. Code is the identity key.
type Extension struct {
	Code           string     `json:"code" yaml:"code"`
	Name           string     `json:"name" yaml:"name"`
	Group          string     `json:"group" yaml:"group"`
	AssignedAgent  string     `json:"assigned_agent" yaml:"assigned_agent"`
	OutboundNumber string     `json:"outbound_number" yaml:"outbound_number"`
	QueueState     QueueState `json:"queue_state" yaml:"queue_state"`
}

// NoAction fills unused routing action slots so every inbound number always
// carries exactly ActionSlots entries.
const NoAction = "no action"

// ActionSlots is the fixed number of routing action slots per inbound
// number, matching the portal's routing table width.
const ActionSlots = 5

// InboundNumber is one external number (DID). Number is the identity key.
type InboundNumber struct {
	Number       string              `json:"number" yaml:"number"`
	InternalID   string              `json:"internal_id" yaml:"internal_id"`
	Announcement string              `json:"announcement" yaml:"announcement"`
	Actions      [ActionSlots]string `json:"actions" yaml:"actions,flow"`
}

// QueueMember is one extension's membership in a queue. RawLabel preserves
// the portal's display text for diagnostics; it carries no meaning for
// comparisons.
type QueueMember struct {
	ExtensionRef string      `json:"extension_ref" yaml:"extension_ref"`
	State        MemberState `json:"state" yaml:"state"`
	RawLabel     string      `json:"raw_label,omitempty" yaml:"raw_label,omitempty"`
}

// Equal compares two members ignoring the raw label.
func (m QueueMember) Equal(other QueueMember) bool {
	return m.ExtensionRef == other.ExtensionRef && m.State == other.State
}

// Queue is one call queue. Name is the identity key.
type Queue struct {
	Name       string        `json:"name" yaml:"name"`
	InternalID string        `json:"internal_id" yaml:"internal_id"`
	Members    []QueueMember `json:"members" yaml:"members"`
}

// ExtensionEqual compares all extension attributes.
func ExtensionEqual(a, b Extension) bool {
	return a == b
}

// InboundNumberEqual compares all inbound number attributes, the five
// action slots included.
func InboundNumberEqual(a, b InboundNumber) bool {
	return a == b
}

// QueueEqual compares queue attributes and the ordered member list. Member
// order reflects the portal's ring order, so a reordering is a change.
func QueueEqual(a, b Queue) bool {
	if a.Name != b.Name || a.InternalID != b.InternalID {
		return false
	}
	if len(a.Members) != len(b.Members) {
		return false
	}
	for i := range a.Members {
		if !a.Members[i].Equal(b.Members[i]) {
			return false
		}
	}
	return true
}
