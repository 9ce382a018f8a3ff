package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/telaudit/pbxaudit/internal/resolver"
	"github.com/telaudit/pbxaudit/pkg/types"
)

// MarkdownFormatter renders reports suitable for pasting into tickets or
// chat tools.
type MarkdownFormatter struct{}

// ChangeSet implements Formatter.
func (f *MarkdownFormatter) ChangeSet(cs *types.ChangeSet) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Configuration changes %s\n\n", cs.CurrentDate)
	if cs.IsFirstRun {
		fmt.Fprintf(&buf, "First run, no previous snapshot to compare against.\n")
		return buf.Bytes(), nil
	}
	fmt.Fprintf(&buf, "Compared against snapshot of %s.\n\n", cs.PreviousDate)

	if !cs.HasChanges() {
		fmt.Fprintf(&buf, "No changes detected.\n")
		return buf.Bytes(), nil
	}

	sum := cs.Summary()
	fmt.Fprintf(&buf, "| Kind | Added | Removed | Modified |\n")
	fmt.Fprintf(&buf, "|------|-------|---------|----------|\n")
	fmt.Fprintf(&buf, "| Extensions | %d | %d | %d |\n", sum.Extensions.Added, sum.Extensions.Removed, sum.Extensions.Modified)
	fmt.Fprintf(&buf, "| DIDs | %d | %d | %d |\n", sum.DIDs.Added, sum.DIDs.Removed, sum.DIDs.Modified)
	fmt.Fprintf(&buf, "| Queues | %d | %d | %d |\n", sum.Queues.Added, sum.Queues.Removed, sum.Queues.Modified)
	fmt.Fprintf(&buf, "\n**Total: %d changes**\n", sum.Total())

	f.extensions(&buf, cs)
	f.dids(&buf, cs)
	f.queues(&buf, cs)

	return buf.Bytes(), nil
}

func (f *MarkdownFormatter) extensions(buf *bytes.Buffer, cs *types.ChangeSet) {
	if len(cs.ExtensionsAdded)+len(cs.ExtensionsRemoved)+len(cs.ExtensionsModified) == 0 {
		return
	}
	fmt.Fprintf(buf, "\n## Extensions\n\n")
	for _, e := range cs.ExtensionsAdded {
		fmt.Fprintf(buf, "- **Added** `%s` %s\n", e.Code, e.Name)
	}
	for _, e := range cs.ExtensionsRemoved {
		fmt.Fprintf(buf, "- **Removed** `%s` %s\n", e.Code, e.Name)
	}
	for _, m := range cs.ExtensionsModified {
		fmt.Fprintf(buf, "- **Modified** `%s` %s\n", m.Code, m.After.Name)
		for _, fc := range extensionFieldChanges(m.Before, m.After) {
			fmt.Fprintf(buf, "  - %s: `%s` to `%s`\n", fc.field, orEmpty(fc.before), orEmpty(fc.after))
		}
	}
}

func (f *MarkdownFormatter) dids(buf *bytes.Buffer, cs *types.ChangeSet) {
	if len(cs.DIDsAdded)+len(cs.DIDsRemoved)+len(cs.DIDsModified) == 0 {
		return
	}
	fmt.Fprintf(buf, "\n## Inbound numbers\n\n")
	for _, n := range cs.DIDsAdded {
		fmt.Fprintf(buf, "- **Added** `%s`\n", n.Number)
	}
	for _, n := range cs.DIDsRemoved {
		fmt.Fprintf(buf, "- **Removed** `%s`\n", n.Number)
	}
	for _, m := range cs.DIDsModified {
		fmt.Fprintf(buf, "- **Modified** `%s`\n", m.Number)
		for _, fc := range didFieldChanges(m.Before, m.After) {
			fmt.Fprintf(buf, "  - %s: `%s` to `%s`\n", fc.field, orEmpty(fc.before), orEmpty(fc.after))
		}
	}
}

func (f *MarkdownFormatter) queues(buf *bytes.Buffer, cs *types.ChangeSet) {
	if len(cs.QueuesAdded)+len(cs.QueuesRemoved)+len(cs.QueuesModified) == 0 {
		return
	}
	fmt.Fprintf(buf, "\n## Queues\n\n")
	for _, q := range cs.QueuesAdded {
		fmt.Fprintf(buf, "- **Added** %s (%d members)\n", q.Name, len(q.Members))
	}
	for _, q := range cs.QueuesRemoved {
		fmt.Fprintf(buf, "- **Removed** %s (%d members)\n", q.Name, len(q.Members))
	}
	for _, m := range cs.QueuesModified {
		fmt.Fprintf(buf, "- **Modified** %s\n", m.Name)
		for _, member := range m.Delta.Added {
			fmt.Fprintf(buf, "  - member joined: `%s` (%s)\n", member.ExtensionRef, member.State)
		}
		for _, member := range m.Delta.Removed {
			fmt.Fprintf(buf, "  - member left: `%s`\n", member.ExtensionRef)
		}
		for _, sc := range m.Delta.StateChanges {
			fmt.Fprintf(buf, "  - member `%s`: %s to %s\n", sc.ExtensionRef, sc.From, sc.To)
		}
	}
}

// Snapshot implements Formatter.
func (f *MarkdownFormatter) Snapshot(s *types.Snapshot, names *resolver.Resolver) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Snapshot %s\n\n", s.Date)
	fmt.Fprintf(&buf, "Captured %s, %d entities.\n\n", s.CapturedAt.Format("2006-01-02 15:04:05"), s.EntityCount())

	fmt.Fprintf(&buf, "## Extensions\n\n")
	fmt.Fprintf(&buf, "| Code | Name | Group | Agent | Outbound | Queue state |\n")
	fmt.Fprintf(&buf, "|------|------|-------|-------|----------|-------------|\n")
	for _, e := range s.Extensions {
		fmt.Fprintf(&buf, "| %s | %s | %s | %s | %s | %s |\n",
			e.Code, e.Name, e.Group, e.AssignedAgent, e.OutboundNumber, e.QueueState)
	}

	fmt.Fprintf(&buf, "\n## Inbound numbers\n\n")
	fmt.Fprintf(&buf, "| Number | Announcement | Actions |\n")
	fmt.Fprintf(&buf, "|--------|--------------|---------|\n")
	for _, n := range s.DIDs {
		fmt.Fprintf(&buf, "| %s | %s | %s |\n", n.Number, n.Announcement, joinActions(n.Actions))
	}

	fmt.Fprintf(&buf, "\n## Queues\n\n")
	for _, q := range s.Queues {
		fmt.Fprintf(&buf, "### %s\n\n", q.Name)
		for _, m := range q.Members {
			fmt.Fprintf(&buf, "- %s (`%s`, %s)\n", names.DisplayName(m.ExtensionRef), m.ExtensionRef, m.State)
		}
		fmt.Fprintf(&buf, "\n")
	}

	if unresolved := names.Unresolved(); len(unresolved) > 0 {
		fmt.Fprintf(&buf, "Unresolved member references: %s\n", strings.Join(unresolved, ", "))
	}

	return buf.Bytes(), nil
}

func orEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}
