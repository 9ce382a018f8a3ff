// Package differ computes the change set between two configuration
// snapshots. Compare is a pure function: it performs no I/O and never
// mutates its inputs, so it can be exercised exhaustively in tests.
package differ

import "github.com/telaudit/pbxaudit/pkg/types"

// Differ compares snapshots.
type Differ struct{}

// New creates a Differ.
func New() *Differ {
	return &Differ{}
}

// Compare diffs current against previous. A nil previous marks the first
// run: there is nothing to compare against, which must stay distinguishable
// from "compared and found nothing different".
//
// Within each list, added and modified entries follow the iteration order of
// the current snapshot and removed entries the order of the previous one, so
// reports stay deterministic for a deterministic extraction order.
func (d *Differ) Compare(current, previous *types.Snapshot) *types.ChangeSet {
	cs := &types.ChangeSet{CurrentDate: current.Date}

	if previous == nil {
		cs.IsFirstRun = true
		return cs
	}
	cs.PreviousDate = previous.Date

	d.compareExtensions(cs, current.Extensions, previous.Extensions)
	d.compareDIDs(cs, current.DIDs, previous.DIDs)
	d.compareQueues(cs, current.Queues, previous.Queues)

	return cs
}

func (d *Differ) compareExtensions(cs *types.ChangeSet, current, previous []types.Extension) {
	prevByCode := make(map[string]types.Extension, len(previous))
	for _, e := range previous {
		prevByCode[e.Code] = e
	}
	currentCodes := make(map[string]bool, len(current))

	for _, e := range current {
		currentCodes[e.Code] = true
		before, existed := prevByCode[e.Code]
		if !existed {
			cs.ExtensionsAdded = append(cs.ExtensionsAdded, e)
			continue
		}
		if !types.ExtensionEqual(before, e) {
			cs.ExtensionsModified = append(cs.ExtensionsModified, types.ModifiedExtension{
				Code:   e.Code,
				Before: before,
				After:  e,
			})
		}
	}

	for _, e := range previous {
		if !currentCodes[e.Code] {
			cs.ExtensionsRemoved = append(cs.ExtensionsRemoved, e)
		}
	}
}

func (d *Differ) compareDIDs(cs *types.ChangeSet, current, previous []types.InboundNumber) {
	prevByNumber := make(map[string]types.InboundNumber, len(previous))
	for _, n := range previous {
		prevByNumber[n.Number] = n
	}
	currentNumbers := make(map[string]bool, len(current))

	for _, n := range current {
		currentNumbers[n.Number] = true
		before, existed := prevByNumber[n.Number]
		if !existed {
			cs.DIDsAdded = append(cs.DIDsAdded, n)
			continue
		}
		if !types.InboundNumberEqual(before, n) {
			cs.DIDsModified = append(cs.DIDsModified, types.ModifiedDID{
				Number: n.Number,
				Before: before,
				After:  n,
			})
		}
	}

	for _, n := range previous {
		if !currentNumbers[n.Number] {
			cs.DIDsRemoved = append(cs.DIDsRemoved, n)
		}
	}
}

func (d *Differ) compareQueues(cs *types.ChangeSet, current, previous []types.Queue) {
	prevByName := make(map[string]types.Queue, len(previous))
	for _, q := range previous {
		prevByName[q.Name] = q
	}
	currentNames := make(map[string]bool, len(current))

	for _, q := range current {
		currentNames[q.Name] = true
		before, existed := prevByName[q.Name]
		if !existed {
			cs.QueuesAdded = append(cs.QueuesAdded, q)
			continue
		}
		if !types.QueueEqual(before, q) {
			cs.QueuesModified = append(cs.QueuesModified, types.ModifiedQueue{
				Name:   q.Name,
				Before: before,
				After:  q,
				Delta:  membershipDelta(before, q),
			})
		}
	}

	for _, q := range previous {
		if !currentNames[q.Name] {
			cs.QueuesRemoved = append(cs.QueuesRemoved, q)
		}
	}
}

// membershipDelta decomposes a queue modification into member-level items:
// members joining, members leaving, and members whose state flipped while
// staying in the queue. References present in both with an unchanged state
// contribute nothing, whatever their raw labels look like.
func membershipDelta(before, after types.Queue) types.MembershipDelta {
	var delta types.MembershipDelta

	beforeByRef := make(map[string]types.QueueMember, len(before.Members))
	for _, m := range before.Members {
		beforeByRef[m.ExtensionRef] = m
	}
	afterRefs := make(map[string]bool, len(after.Members))

	for _, m := range after.Members {
		afterRefs[m.ExtensionRef] = true
		old, existed := beforeByRef[m.ExtensionRef]
		if !existed {
			delta.Added = append(delta.Added, m)
			continue
		}
		if old.State != m.State {
			delta.StateChanges = append(delta.StateChanges, types.MemberStateChange{
				ExtensionRef: m.ExtensionRef,
				From:         old.State,
				To:           m.State,
			})
		}
	}

	for _, m := range before.Members {
		if !afterRefs[m.ExtensionRef] {
			delta.Removed = append(delta.Removed, m)
		}
	}

	return delta
}
