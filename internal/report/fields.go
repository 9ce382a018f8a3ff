package report

import (
	"fmt"

	"github.com/telaudit/pbxaudit/pkg/types"
)

// fieldChange is one attribute delta within a modified entity, rendered by
// the table and markdown formatters.
type fieldChange struct {
	field  string
	before string
	after  string
}

func extensionFieldChanges(before, after types.Extension) []fieldChange {
	var changes []fieldChange
	add := func(field, b, a string) {
		if b != a {
			changes = append(changes, fieldChange{field: field, before: b, after: a})
		}
	}
	add("name", before.Name, after.Name)
	add("group", before.Group, after.Group)
	add("agent", before.AssignedAgent, after.AssignedAgent)
	add("outbound", before.OutboundNumber, after.OutboundNumber)
	add("queue state", string(before.QueueState), string(after.QueueState))
	return changes
}

func didFieldChanges(before, after types.InboundNumber) []fieldChange {
	var changes []fieldChange
	if before.InternalID != after.InternalID {
		changes = append(changes, fieldChange{field: "internal id", before: before.InternalID, after: after.InternalID})
	}
	if before.Announcement != after.Announcement {
		changes = append(changes, fieldChange{field: "announcement", before: before.Announcement, after: after.Announcement})
	}
	for i := 0; i < types.ActionSlots; i++ {
		if before.Actions[i] != after.Actions[i] {
			changes = append(changes, fieldChange{
				field:  fmt.Sprintf("action %d", i+1),
				before: before.Actions[i],
				after:  after.Actions[i],
			})
		}
	}
	return changes
}
