package differ

import (
	"reflect"
	"testing"
	"time"

	"github.com/telaudit/pbxaudit/pkg/types"
)

func snapshotOn(date string) *types.Snapshot {
	day, _ := time.Parse(types.DateLayout, date)
	return types.NewSnapshot(day)
}

func fullSnapshot(date string) *types.Snapshot {
	s := snapshotOn(date)
	s.Extensions = []types.Extension{
		{Code: "4001-010", Name: "Alice", Group: "Support", AssignedAgent: "alice", OutboundNumber: "+34911", QueueState: types.QueueStateAllActive},
		{Code: "4002-010", Name: "Bob", Group: "Sales", QueueState: types.QueueStateNone},
	}
	s.DIDs = []types.InboundNumber{
		{
			Number:       "+34911222333",
			InternalID:   "77",
			Announcement: "Welcome",
			Actions:      [types.ActionSlots]string{"Queue: Support", types.NoAction, types.NoAction, types.NoAction, types.NoAction},
		},
	}
	s.Queues = []types.Queue{
		{Name: "Support", InternalID: "9", Members: []types.QueueMember{
			{ExtensionRef: "4001010", State: types.MemberActive, RawLabel: "Alice"},
			{ExtensionRef: "4002010", State: types.MemberPaused, RawLabel: "Bob"},
		}},
	}
	return s
}

func TestCompareIdenticalSnapshots(t *testing.T) {
	d := New()
	s := fullSnapshot("2025-03-14")

	cs := d.Compare(s, s)

	if cs.HasChanges() {
		t.Error("compare(S, S) must report no changes")
	}
	if cs.IsFirstRun {
		t.Error("compare(S, S) is not a first run")
	}

	sum := cs.Summary()
	if sum.Total() != 0 {
		t.Errorf("summary total = %d, want 0", sum.Total())
	}
}

func TestCompareFirstRun(t *testing.T) {
	d := New()
	current := fullSnapshot("2025-03-14")

	cs := d.Compare(current, nil)

	if !cs.IsFirstRun {
		t.Fatal("nil previous must mark a first run")
	}
	if cs.HasChanges() {
		t.Error("first run must not report changes, whatever current contains")
	}
	if cs.CurrentDate != "2025-03-14" {
		t.Errorf("current date = %s", cs.CurrentDate)
	}
	if cs.PreviousDate != "" {
		t.Errorf("first run must carry no previous date, got %s", cs.PreviousDate)
	}
}

func TestCompareDisjointSets(t *testing.T) {
	d := New()

	previous := snapshotOn("2025-03-13")
	previous.Extensions = []types.Extension{{Code: "1000"}, {Code: "1001"}}

	current := snapshotOn("2025-03-14")
	current.Extensions = []types.Extension{{Code: "2000"}, {Code: "2001"}, {Code: "2002"}}

	cs := d.Compare(current, previous)

	if len(cs.ExtensionsAdded) != 3 {
		t.Errorf("added = %d, want every element of current", len(cs.ExtensionsAdded))
	}
	if len(cs.ExtensionsRemoved) != 2 {
		t.Errorf("removed = %d, want every element of previous", len(cs.ExtensionsRemoved))
	}
	if len(cs.ExtensionsModified) != 0 {
		t.Errorf("modified = %d, want 0 for disjoint sets", len(cs.ExtensionsModified))
	}
}

func TestCompareSingleFieldModification(t *testing.T) {
	d := New()
	previous := fullSnapshot("2025-03-13")
	current := fullSnapshot("2025-03-14")
	current.Extensions[1].Group = "Marketing"

	cs := d.Compare(current, previous)

	if len(cs.ExtensionsModified) != 1 {
		t.Fatalf("modified = %d, want exactly 1", len(cs.ExtensionsModified))
	}
	mod := cs.ExtensionsModified[0]
	if mod.Code != "4002-010" {
		t.Errorf("modified code = %s", mod.Code)
	}
	if mod.Before.Group != "Sales" || mod.After.Group != "Marketing" {
		t.Errorf("before/after wrong: %+v", mod)
	}
	if mod.Before.Name != "Bob" || mod.After.Name != "Bob" {
		t.Error("modified entry must carry the full records")
	}

	if len(cs.ExtensionsAdded) != 0 || len(cs.ExtensionsRemoved) != 0 {
		t.Error("a field change must not surface as add/remove")
	}
	if len(cs.DIDsModified) != 0 || len(cs.QueuesModified) != 0 {
		t.Error("other kinds must stay untouched")
	}
}

func TestCompareDIDActionChange(t *testing.T) {
	d := New()
	previous := fullSnapshot("2025-03-13")
	current := fullSnapshot("2025-03-14")
	current.DIDs[0].Actions[2] = "Voicemail"

	cs := d.Compare(current, previous)

	if len(cs.DIDsModified) != 1 {
		t.Fatalf("DIDs modified = %d, want 1", len(cs.DIDsModified))
	}
	mod := cs.DIDsModified[0]
	if mod.Before.Actions[2] != types.NoAction || mod.After.Actions[2] != "Voicemail" {
		t.Errorf("action slot diff wrong: %+v", mod)
	}
}

func TestCompareQueueMembershipDelta(t *testing.T) {
	d := New()

	previous := snapshotOn("2025-03-13")
	previous.Queues = []types.Queue{{Name: "Support", Members: []types.QueueMember{
		{ExtensionRef: "A", State: types.MemberActive},
		{ExtensionRef: "B", State: types.MemberPaused},
	}}}

	current := snapshotOn("2025-03-14")
	current.Queues = []types.Queue{{Name: "Support", Members: []types.QueueMember{
		{ExtensionRef: "A", State: types.MemberPaused},
		{ExtensionRef: "C", State: types.MemberActive},
	}}}

	cs := d.Compare(current, previous)

	if len(cs.QueuesModified) != 1 {
		t.Fatalf("queues modified = %d, want 1", len(cs.QueuesModified))
	}
	delta := cs.QueuesModified[0].Delta

	if len(delta.Added) != 1 || delta.Added[0].ExtensionRef != "C" {
		t.Errorf("added = %+v, want C", delta.Added)
	}
	if len(delta.Removed) != 1 || delta.Removed[0].ExtensionRef != "B" {
		t.Errorf("removed = %+v, want B", delta.Removed)
	}
	if len(delta.StateChanges) != 1 {
		t.Fatalf("state changes = %+v, want one for A", delta.StateChanges)
	}
	sc := delta.StateChanges[0]
	if sc.ExtensionRef != "A" || sc.From != types.MemberActive || sc.To != types.MemberPaused {
		t.Errorf("state change = %+v, want A active->paused", sc)
	}
}

func TestCompareRawLabelNoiseIsNotAChange(t *testing.T) {
	d := New()
	previous := fullSnapshot("2025-03-13")
	current := fullSnapshot("2025-03-14")
	current.Queues[0].Members[0].RawLabel = "Alice   Ext: 4001010"

	cs := d.Compare(current, previous)

	if cs.HasChanges() {
		t.Error("a raw-label-only difference must not register as a change")
	}
}

func TestCompareQueueAddedAndRemoved(t *testing.T) {
	d := New()

	previous := snapshotOn("2025-03-13")
	previous.Queues = []types.Queue{{Name: "Old"}}

	current := snapshotOn("2025-03-14")
	current.Queues = []types.Queue{{Name: "New", Members: []types.QueueMember{{ExtensionRef: "A", State: types.MemberActive}}}}

	cs := d.Compare(current, previous)

	if len(cs.QueuesAdded) != 1 || cs.QueuesAdded[0].Name != "New" {
		t.Errorf("queues added = %+v", cs.QueuesAdded)
	}
	if len(cs.QueuesRemoved) != 1 || cs.QueuesRemoved[0].Name != "Old" {
		t.Errorf("queues removed = %+v", cs.QueuesRemoved)
	}
	if len(cs.QueuesModified) != 0 {
		t.Errorf("queues modified = %+v", cs.QueuesModified)
	}
}

func TestCompareOrderingIsDeterministic(t *testing.T) {
	d := New()

	previous := snapshotOn("2025-03-13")
	previous.Extensions = []types.Extension{{Code: "z"}, {Code: "a"}, {Code: "m"}}

	current := snapshotOn("2025-03-14")
	current.Extensions = []types.Extension{{Code: "delta"}, {Code: "alpha"}, {Code: "charlie"}}

	cs := d.Compare(current, previous)

	gotAdded := make([]string, 0, len(cs.ExtensionsAdded))
	for _, e := range cs.ExtensionsAdded {
		gotAdded = append(gotAdded, e.Code)
	}
	if !reflect.DeepEqual(gotAdded, []string{"delta", "alpha", "charlie"}) {
		t.Errorf("added order = %v, want current insertion order", gotAdded)
	}

	gotRemoved := make([]string, 0, len(cs.ExtensionsRemoved))
	for _, e := range cs.ExtensionsRemoved {
		gotRemoved = append(gotRemoved, e.Code)
	}
	if !reflect.DeepEqual(gotRemoved, []string{"z", "a", "m"}) {
		t.Errorf("removed order = %v, want previous insertion order", gotRemoved)
	}
}

func TestCompareDoesNotMutateInputs(t *testing.T) {
	d := New()
	previous := fullSnapshot("2025-03-13")
	current := fullSnapshot("2025-03-14")
	current.Extensions[0].Name = "Alicia"
	current.Queues[0].Members[1].State = types.MemberActive

	prevCopy := previous.Clone()
	currCopy := current.Clone()

	_ = d.Compare(current, previous)

	if !reflect.DeepEqual(previous, prevCopy) {
		t.Error("Compare mutated the previous snapshot")
	}
	if !reflect.DeepEqual(current, currCopy) {
		t.Error("Compare mutated the current snapshot")
	}
}

func TestHasChangesCoversEveryList(t *testing.T) {
	d := New()

	mutations := []func(current, previous *types.Snapshot){
		func(c, p *types.Snapshot) { c.Extensions = append(c.Extensions, types.Extension{Code: "new"}) },
		func(c, p *types.Snapshot) { p.Extensions = append(p.Extensions, types.Extension{Code: "gone"}) },
		func(c, p *types.Snapshot) { c.Extensions[0].Name = "renamed" },
		func(c, p *types.Snapshot) { c.DIDs = append(c.DIDs, types.InboundNumber{Number: "+1"}) },
		func(c, p *types.Snapshot) { p.DIDs = append(p.DIDs, types.InboundNumber{Number: "+2"}) },
		func(c, p *types.Snapshot) { c.DIDs[0].Announcement = "changed" },
		func(c, p *types.Snapshot) { c.Queues = append(c.Queues, types.Queue{Name: "new"}) },
		func(c, p *types.Snapshot) { p.Queues = append(p.Queues, types.Queue{Name: "gone"}) },
		func(c, p *types.Snapshot) { c.Queues[0].Members[0].State = types.MemberPaused },
	}

	for i, mutate := range mutations {
		current := fullSnapshot("2025-03-14")
		previous := fullSnapshot("2025-03-13")
		mutate(current, previous)

		cs := d.Compare(current, previous)
		if !cs.HasChanges() {
			t.Errorf("mutation %d did not register as a change", i)
		}
	}
}
