package collectors

import "context"

// RawExtension is one row of the portal's extension table, exactly as
// captured. Every field is untrusted text until the normalizer has seen it.
// ResumeControl and PauseControl carry the class attributes of the per-row
// queue controls; the normalizer derives the queue state from them.
type RawExtension struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	Group          string `json:"group"`
	AssignedAgent  string `json:"assigned_agent"`
	OutboundNumber string `json:"outbound_number"`
	ResumeControl  string `json:"resume_control"`
	PauseControl   string `json:"pause_control"`
}

// RawDID is one inbound number detail panel as captured. Action slots that
// the panel did not show are empty strings here; the normalizer fills the
// sentinel.
type RawDID struct {
	Number       string `json:"number"`
	InternalID   string `json:"internal_id"`
	Announcement string `json:"announcement"`
	Action1      string `json:"action1"`
	Action2      string `json:"action2"`
	Action3      string `json:"action3"`
	Action4      string `json:"action4"`
	Action5      string `json:"action5"`
}

// RawMember is one entry of a queue's member list. StateIcon carries the
// class attribute of the member's state icon.
type RawMember struct {
	ExtensionRef string `json:"extension_ref"`
	Label        string `json:"label"`
	StateIcon    string `json:"state_icon"`
}

// RawQueue is one queue detail panel as captured.
type RawQueue struct {
	Name       string      `json:"name"`
	InternalID string      `json:"internal_id"`
	Members    []RawMember `json:"members"`
}

// Extraction is the complete raw output of one collection run: three ordered
// record lists. A nil list means zero entities of that kind, not an error.
// An incomplete extraction must never be returned as a partial Extraction;
// collectors fail hard instead.
type Extraction struct {
	Extensions []RawExtension `json:"extensions"`
	DIDs       []RawDID       `json:"dids"`
	Queues     []RawQueue     `json:"queues"`
}

// Collector delivers one complete extraction per audit run.
type Collector interface {
	Name() string
	Collect(ctx context.Context) (*Extraction, error)
}
