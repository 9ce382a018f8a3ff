// Package normalizer turns raw portal records into canonical entities. It is
// the trust boundary: every field arriving from the extraction layer is
// treated as unvalidated text until it has passed through here.
package normalizer

import (
	"strings"
	"time"

	"github.com/telaudit/pbxaudit/internal/collectors"
	"github.com/telaudit/pbxaudit/internal/logger"
	"github.com/telaudit/pbxaudit/pkg/types"
)

// Class markers of the portal's per-extension queue controls. The pause
// control being enabled means the extension is currently active in its
// queues (the control offers the transition, not the state).
const (
	resumeEnabledMarker = "btn-success"
	pauseEnabledMarker  = "btn-danger"
)

// State icon markers inside queue member entries.
const (
	memberActiveMarker = "fa-play"
	memberPausedMarker = "fa-pause"
)

// Normalizer cleans and validates raw extraction records. Records without an
// identity are dropped with a warning; duplicated identities keep the
// later-encountered record. The run always continues.
type Normalizer struct {
	log logger.Logger
}

// New creates a Normalizer logging data-quality warnings to the given logger.
func New(log logger.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Snapshot normalizes a complete extraction into a snapshot for the given
// day. Nil record lists yield empty collections.
func (n *Normalizer) Snapshot(capturedAt time.Time, raw *collectors.Extraction) *types.Snapshot {
	snapshot := types.NewSnapshot(capturedAt)
	if raw == nil {
		return snapshot
	}

	snapshot.Extensions = n.Extensions(raw.Extensions)
	snapshot.DIDs = n.InboundNumbers(raw.DIDs)
	snapshot.Queues = n.Queues(raw.Queues)
	return snapshot
}

// Extensions normalizes raw extension rows, deduplicating on code.
func (n *Normalizer) Extensions(raw []collectors.RawExtension) []types.Extension {
	result := make([]types.Extension, 0, len(raw))
	index := make(map[string]int, len(raw))

	for i, r := range raw {
		code := strings.TrimSpace(r.Code)
		if code == "" {
			n.warnDropped("extension", i, "empty extension code")
			continue
		}

		ext := types.Extension{
			Code:           code,
			Name:           strings.TrimSpace(r.Name),
			Group:          strings.TrimSpace(r.Group),
			AssignedAgent:  strings.TrimSpace(r.AssignedAgent),
			OutboundNumber: strings.TrimSpace(r.OutboundNumber),
			QueueState:     classifyQueueState(r.ResumeControl, r.PauseControl),
		}

		if pos, seen := index[code]; seen {
			n.warnDuplicate("extension", code)
			result[pos] = ext
			continue
		}
		index[code] = len(result)
		result = append(result, ext)
	}

	return result
}

// InboundNumbers normalizes raw DID records, deduplicating on number and
// filling empty action slots with the sentinel.
func (n *Normalizer) InboundNumbers(raw []collectors.RawDID) []types.InboundNumber {
	result := make([]types.InboundNumber, 0, len(raw))
	index := make(map[string]int, len(raw))

	for i, r := range raw {
		number := strings.TrimSpace(r.Number)
		if number == "" {
			n.warnDropped("did", i, "empty DID number")
			continue
		}

		did := types.InboundNumber{
			Number:       number,
			InternalID:   strings.TrimSpace(r.InternalID),
			Announcement: actionOrSentinel(r.Announcement),
			Actions: [types.ActionSlots]string{
				actionOrSentinel(r.Action1),
				actionOrSentinel(r.Action2),
				actionOrSentinel(r.Action3),
				actionOrSentinel(r.Action4),
				actionOrSentinel(r.Action5),
			},
		}

		if pos, seen := index[number]; seen {
			n.warnDuplicate("did", number)
			result[pos] = did
			continue
		}
		index[number] = len(result)
		result = append(result, did)
	}

	return result
}

// Queues normalizes raw queue records, deduplicating on name. Members with
// an empty extension reference are dropped the same way identity-less
// entities are.
func (n *Normalizer) Queues(raw []collectors.RawQueue) []types.Queue {
	result := make([]types.Queue, 0, len(raw))
	index := make(map[string]int, len(raw))

	for i, r := range raw {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			n.warnDropped("queue", i, "empty queue name")
			continue
		}

		members := make([]types.QueueMember, 0, len(r.Members))
		for j, m := range r.Members {
			ref := strings.TrimSpace(m.ExtensionRef)
			if ref == "" {
				n.log.WithFields(map[string]interface{}{
					"queue": name,
					"index": j,
				}).Warn("dropping queue member without extension reference")
				continue
			}
			members = append(members, types.QueueMember{
				ExtensionRef: ref,
				State:        classifyMemberState(m.StateIcon),
				RawLabel:     strings.TrimSpace(m.Label),
			})
		}

		queue := types.Queue{
			Name:       name,
			InternalID: strings.TrimSpace(r.InternalID),
			Members:    members,
		}

		if pos, seen := index[name]; seen {
			n.warnDuplicate("queue", name)
			result[pos] = queue
			continue
		}
		index[name] = len(result)
		result = append(result, queue)
	}

	return result
}

func (n *Normalizer) warnDropped(kind string, index int, reason string) {
	n.log.WithFields(map[string]interface{}{
		"kind":  kind,
		"index": index,
	}).Warn("dropping record: " + reason)
}

func (n *Normalizer) warnDuplicate(kind, identity string) {
	n.log.WithFields(map[string]interface{}{
		"kind":     kind,
		"identity": identity,
	}).Warn("duplicate identity in extraction, keeping the later record")
}

// classifyQueueState derives the queue state of an extension from the class
// attributes of its resume/pause controls. An enabled control offers a
// transition: an enabled pause control means the queues are active, an
// enabled resume control means they are paused. Missing controls altogether
// mean the state cannot be read.
func classifyQueueState(resumeControl, pauseControl string) types.QueueState {
	resumeEnabled := strings.Contains(resumeControl, resumeEnabledMarker)
	pauseEnabled := strings.Contains(pauseControl, pauseEnabledMarker)

	switch {
	case resumeEnabled && pauseEnabled:
		return types.QueueStateMixed
	case resumeEnabled:
		return types.QueueStateAllPaused
	case pauseEnabled:
		return types.QueueStateAllActive
	case strings.TrimSpace(resumeControl) == "" && strings.TrimSpace(pauseControl) == "":
		return types.QueueStateUnknown
	default:
		return types.QueueStateNone
	}
}

// classifyMemberState derives a member's state from its icon classes.
func classifyMemberState(stateIcon string) types.MemberState {
	switch {
	case strings.Contains(stateIcon, memberActiveMarker):
		return types.MemberActive
	case strings.Contains(stateIcon, memberPausedMarker):
		return types.MemberPaused
	default:
		return types.MemberUnknown
	}
}

// actionOrSentinel trims an action description and substitutes the sentinel
// for missing values so callers never branch on absence.
func actionOrSentinel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return types.NoAction
	}
	return trimmed
}
