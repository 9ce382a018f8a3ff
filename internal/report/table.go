package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/telaudit/pbxaudit/internal/resolver"
	"github.com/telaudit/pbxaudit/pkg/types"
)

// TableFormatter renders terminal tables, the default interactive view.
type TableFormatter struct{}

var (
	addedColor    = color.New(color.FgGreen)
	removedColor  = color.New(color.FgRed)
	modifiedColor = color.New(color.FgYellow)
	headerColor   = color.New(color.Bold)
)

// ChangeSet implements Formatter.
func (f *TableFormatter) ChangeSet(cs *types.ChangeSet) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", headerColor.Sprint("Configuration Changes"))
	fmt.Fprintf(&buf, "=====================\n")
	if cs.IsFirstRun {
		fmt.Fprintf(&buf, "Date: %s\n\n", cs.CurrentDate)
		fmt.Fprintf(&buf, "First run: no previous snapshot to compare against.\n")
		return buf.Bytes(), nil
	}
	fmt.Fprintf(&buf, "Comparing: %s -> %s\n\n", cs.PreviousDate, cs.CurrentDate)

	sum := cs.Summary()
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Kind\tAdded\tRemoved\tModified\n")
	fmt.Fprintf(w, "----\t-----\t-------\t--------\n")
	fmt.Fprintf(w, "Extensions\t%d\t%d\t%d\n", sum.Extensions.Added, sum.Extensions.Removed, sum.Extensions.Modified)
	fmt.Fprintf(w, "DIDs\t%d\t%d\t%d\n", sum.DIDs.Added, sum.DIDs.Removed, sum.DIDs.Modified)
	fmt.Fprintf(w, "Queues\t%d\t%d\t%d\n", sum.Queues.Added, sum.Queues.Removed, sum.Queues.Modified)
	w.Flush()

	if !cs.HasChanges() {
		fmt.Fprintf(&buf, "\nNo changes detected.\n")
		return buf.Bytes(), nil
	}
	fmt.Fprintf(&buf, "\nTotal: %d changes\n", sum.Total())

	f.extensionSection(&buf, cs)
	f.didSection(&buf, cs)
	f.queueSection(&buf, cs)

	return buf.Bytes(), nil
}

func (f *TableFormatter) extensionSection(buf *bytes.Buffer, cs *types.ChangeSet) {
	if len(cs.ExtensionsAdded)+len(cs.ExtensionsRemoved)+len(cs.ExtensionsModified) == 0 {
		return
	}
	fmt.Fprintf(buf, "\n%s\n", headerColor.Sprint("Extensions"))

	for _, e := range cs.ExtensionsAdded {
		fmt.Fprintf(buf, "  %s %s (%s)\n", addedColor.Sprint("+"), e.Code, e.Name)
	}
	for _, e := range cs.ExtensionsRemoved {
		fmt.Fprintf(buf, "  %s %s (%s)\n", removedColor.Sprint("-"), e.Code, e.Name)
	}
	for _, m := range cs.ExtensionsModified {
		fmt.Fprintf(buf, "  %s %s (%s)\n", modifiedColor.Sprint("~"), m.Code, m.After.Name)
		for _, fc := range extensionFieldChanges(m.Before, m.After) {
			fmt.Fprintf(buf, "      %s: %s -> %s\n", fc.field, fc.before, fc.after)
		}
	}
}

func (f *TableFormatter) didSection(buf *bytes.Buffer, cs *types.ChangeSet) {
	if len(cs.DIDsAdded)+len(cs.DIDsRemoved)+len(cs.DIDsModified) == 0 {
		return
	}
	fmt.Fprintf(buf, "\n%s\n", headerColor.Sprint("Inbound numbers"))

	for _, n := range cs.DIDsAdded {
		fmt.Fprintf(buf, "  %s %s\n", addedColor.Sprint("+"), n.Number)
	}
	for _, n := range cs.DIDsRemoved {
		fmt.Fprintf(buf, "  %s %s\n", removedColor.Sprint("-"), n.Number)
	}
	for _, m := range cs.DIDsModified {
		fmt.Fprintf(buf, "  %s %s\n", modifiedColor.Sprint("~"), m.Number)
		for _, fc := range didFieldChanges(m.Before, m.After) {
			fmt.Fprintf(buf, "      %s: %s -> %s\n", fc.field, fc.before, fc.after)
		}
	}
}

func (f *TableFormatter) queueSection(buf *bytes.Buffer, cs *types.ChangeSet) {
	if len(cs.QueuesAdded)+len(cs.QueuesRemoved)+len(cs.QueuesModified) == 0 {
		return
	}
	fmt.Fprintf(buf, "\n%s\n", headerColor.Sprint("Queues"))

	for _, q := range cs.QueuesAdded {
		fmt.Fprintf(buf, "  %s %s (%d members)\n", addedColor.Sprint("+"), q.Name, len(q.Members))
	}
	for _, q := range cs.QueuesRemoved {
		fmt.Fprintf(buf, "  %s %s (%d members)\n", removedColor.Sprint("-"), q.Name, len(q.Members))
	}
	for _, m := range cs.QueuesModified {
		fmt.Fprintf(buf, "  %s %s\n", modifiedColor.Sprint("~"), m.Name)
		for _, member := range m.Delta.Added {
			fmt.Fprintf(buf, "      %s member %s (%s)\n", addedColor.Sprint("+"), member.ExtensionRef, member.State)
		}
		for _, member := range m.Delta.Removed {
			fmt.Fprintf(buf, "      %s member %s\n", removedColor.Sprint("-"), member.ExtensionRef)
		}
		for _, sc := range m.Delta.StateChanges {
			fmt.Fprintf(buf, "      %s member %s: %s -> %s\n", modifiedColor.Sprint("~"), sc.ExtensionRef, sc.From, sc.To)
		}
		if m.Delta.IsEmpty() {
			fmt.Fprintf(buf, "      (membership order or queue metadata changed)\n")
		}
	}
}

// Snapshot implements Formatter. Queue members carry the display name from
// the extension registry; unresolved references keep their warning marker.
func (f *TableFormatter) Snapshot(s *types.Snapshot, names *resolver.Resolver) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", headerColor.Sprintf("Snapshot %s", s.Date))
	fmt.Fprintf(&buf, "Captured: %s\n\n", s.CapturedAt.Format("2006-01-02 15:04:05"))

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Extension\tName\tGroup\tAgent\tOutbound\tQueue state\n")
	fmt.Fprintf(w, "---------\t----\t-----\t-----\t--------\t-----------\n")
	for _, e := range s.Extensions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Code, e.Name, e.Group, e.AssignedAgent, e.OutboundNumber, e.QueueState)
	}
	w.Flush()

	fmt.Fprintf(&buf, "\n")
	w = tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "DID\tAnnouncement\tActions\n")
	fmt.Fprintf(w, "---\t------------\t-------\n")
	for _, n := range s.DIDs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", n.Number, n.Announcement, joinActions(n.Actions))
	}
	w.Flush()

	fmt.Fprintf(&buf, "\n")
	w = tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Queue\tMember\tExtension\tState\n")
	fmt.Fprintf(w, "-----\t------\t---------\t-----\n")
	for _, q := range s.Queues {
		for _, m := range q.Members {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", q.Name, names.DisplayName(m.ExtensionRef), m.ExtensionRef, m.State)
		}
	}
	w.Flush()

	if unresolved := names.Unresolved(); len(unresolved) > 0 {
		fmt.Fprintf(&buf, "\n%d member reference(s) not found in the extension registry: %s\n",
			len(unresolved), strings.Join(unresolved, ", "))
	}

	return buf.Bytes(), nil
}

// joinActions renders the action sequence, eliding trailing empty slots.
func joinActions(actions [types.ActionSlots]string) string {
	last := -1
	for i, a := range actions {
		if a != types.NoAction {
			last = i
		}
	}
	if last < 0 {
		return types.NoAction
	}
	return strings.Join(actions[:last+1], " | ")
}
