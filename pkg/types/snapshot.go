package types

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used for snapshot identity and
// snapshot filenames.
const DateLayout = "2006-01-02"

// Snapshot is the complete capture of the PBX configuration for one calendar
// day. Date is the identity: one snapshot per day.
type Snapshot struct {
	CapturedAt time.Time       `json:"captured_at" yaml:"captured_at"`
	Date       string          `json:"date" yaml:"date"`
	Extensions []Extension     `json:"extensions" yaml:"extensions"`
	DIDs       []InboundNumber `json:"dids" yaml:"dids"`
	Queues     []Queue         `json:"queues" yaml:"queues"`
}

// NewSnapshot creates an empty snapshot for the given day.
func NewSnapshot(day time.Time) *Snapshot {
	return &Snapshot{
		CapturedAt: day,
		Date:       day.Format(DateLayout),
		Extensions: []Extension{},
		DIDs:       []InboundNumber{},
		Queues:     []Queue{},
	}
}

// Validate checks that the snapshot has a well-formed date, a capture
// timestamp and unique identity keys per entity kind.
func (s *Snapshot) Validate() error {
	if s.Date == "" {
		return errors.New("snapshot date is required")
	}
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return fmt.Errorf("snapshot date %q is not a valid %s date: %w", s.Date, DateLayout, err)
	}
	if s.CapturedAt.IsZero() {
		return errors.New("snapshot capture timestamp is required")
	}

	seenExt := make(map[string]bool, len(s.Extensions))
	for _, e := range s.Extensions {
		if e.Code == "" {
			return errors.New("extension with empty code in snapshot")
		}
		if seenExt[e.Code] {
			return fmt.Errorf("duplicate extension code %q in snapshot", e.Code)
		}
		seenExt[e.Code] = true
	}

	seenDID := make(map[string]bool, len(s.DIDs))
	for _, d := range s.DIDs {
		if d.Number == "" {
			return errors.New("DID with empty number in snapshot")
		}
		if seenDID[d.Number] {
			return fmt.Errorf("duplicate DID number %q in snapshot", d.Number)
		}
		seenDID[d.Number] = true
	}

	seenQueue := make(map[string]bool, len(s.Queues))
	for _, q := range s.Queues {
		if q.Name == "" {
			return errors.New("queue with empty name in snapshot")
		}
		if seenQueue[q.Name] {
			return fmt.Errorf("duplicate queue name %q in snapshot", q.Name)
		}
		seenQueue[q.Name] = true
	}

	return nil
}

// Day returns the snapshot date as a time value.
func (s *Snapshot) Day() (time.Time, error) {
	return time.Parse(DateLayout, s.Date)
}

// EntityCount returns the total number of entities across all three kinds.
func (s *Snapshot) EntityCount() int {
	return len(s.Extensions) + len(s.DIDs) + len(s.Queues)
}

// ExtensionByCode returns the extension with the given code, or nil.
func (s *Snapshot) ExtensionByCode(code string) *Extension {
	for i := range s.Extensions {
		if s.Extensions[i].Code == code {
			return &s.Extensions[i]
		}
	}
	return nil
}

// DIDByNumber returns the inbound number with the given number, or nil.
func (s *Snapshot) DIDByNumber(number string) *InboundNumber {
	for i := range s.DIDs {
		if s.DIDs[i].Number == number {
			return &s.DIDs[i]
		}
	}
	return nil
}

// QueueByName returns the queue with the given name, or nil.
func (s *Snapshot) QueueByName(name string) *Queue {
	for i := range s.Queues {
		if s.Queues[i].Name == name {
			return &s.Queues[i]
		}
	}
	return nil
}

// Clone creates a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	clone := &Snapshot{
		CapturedAt: s.CapturedAt,
		Date:       s.Date,
	}

	if s.Extensions != nil {
		clone.Extensions = make([]Extension, len(s.Extensions))
		copy(clone.Extensions, s.Extensions)
	}
	if s.DIDs != nil {
		clone.DIDs = make([]InboundNumber, len(s.DIDs))
		copy(clone.DIDs, s.DIDs)
	}
	if s.Queues != nil {
		clone.Queues = make([]Queue, len(s.Queues))
		for i, q := range s.Queues {
			members := make([]QueueMember, len(q.Members))
			copy(members, q.Members)
			q.Members = members
			clone.Queues[i] = q
		}
	}

	return clone
}

// String returns a short human-readable description of the snapshot.
func (s *Snapshot) String() string {
	return fmt.Sprintf("snapshot %s (%d extensions, %d DIDs, %d queues)",
		s.Date, len(s.Extensions), len(s.DIDs), len(s.Queues))
}
