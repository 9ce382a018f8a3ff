package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	apperrors "github.com/telaudit/pbxaudit/internal/errors"
	"github.com/telaudit/pbxaudit/pkg/types"
)

// HTMLReport writes the daily change report used as the email attachment.
// One file per day, overwritten on re-runs of the same date.
type HTMLReport struct {
	dir string
}

// NewHTMLReport returns a writer rooted at the reports directory.
func NewHTMLReport(dir string) *HTMLReport {
	return &HTMLReport{dir: dir}
}

// Path returns the report location for a date.
func (r *HTMLReport) Path(date string) string {
	return filepath.Join(r.dir, date+"_changes.html")
}

type htmlReportData struct {
	ChangeSet *types.ChangeSet
	Summary   types.Summary
	ExtMods   []htmlModification
	DIDMods   []htmlModification
}

type htmlModification struct {
	Identity string
	Changes  []fieldChange
}

// Write renders the change set and writes it to the reports directory,
// returning the file path.
func (r *HTMLReport) Write(cs *types.ChangeSet) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", apperrors.Wrap(apperrors.KindStorage, "creating reports directory", err)
	}

	data := htmlReportData{
		ChangeSet: cs,
		Summary:   cs.Summary(),
	}
	for _, m := range cs.ExtensionsModified {
		data.ExtMods = append(data.ExtMods, htmlModification{
			Identity: m.Code,
			Changes:  extensionFieldChanges(m.Before, m.After),
		})
	}
	for _, m := range cs.DIDsModified {
		data.DIDMods = append(data.DIDMods, htmlModification{
			Identity: m.Number,
			Changes:  didFieldChanges(m.Before, m.After),
		})
	}

	var buf bytes.Buffer
	if err := htmlReportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering html report: %w", err)
	}

	path := r.Path(cs.CurrentDate)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", apperrors.Wrap(apperrors.KindStorage, "writing html report", err)
	}
	return path, nil
}

var htmlReportTemplate = template.Must(template.New("changes").Funcs(template.FuncMap{
	"field":  func(fc fieldChange) string { return fc.field },
	"before": func(fc fieldChange) string { return fc.before },
	"after":  func(fc fieldChange) string { return fc.after },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>PBX configuration changes {{.ChangeSet.CurrentDate}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 24px; color: #222; }
h1 { font-size: 20px; }
h2 { font-size: 16px; border-bottom: 1px solid #ddd; padding-bottom: 4px; }
table { border-collapse: collapse; margin: 8px 0 16px; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
th { background: #f0f0f0; }
.added { color: #1a7f37; }
.removed { color: #cf222e; }
.modified { color: #9a6700; }
.empty { color: #888; font-style: italic; }
</style>
</head>
<body>
<h1>PBX configuration changes {{.ChangeSet.CurrentDate}}</h1>
{{if .ChangeSet.IsFirstRun}}
<p>First run. No previous snapshot to compare against.</p>
{{else}}
<p>Compared against snapshot of {{.ChangeSet.PreviousDate}}.</p>
<table>
<tr><th>Kind</th><th>Added</th><th>Removed</th><th>Modified</th></tr>
<tr><td>Extensions</td><td>{{.Summary.Extensions.Added}}</td><td>{{.Summary.Extensions.Removed}}</td><td>{{.Summary.Extensions.Modified}}</td></tr>
<tr><td>DIDs</td><td>{{.Summary.DIDs.Added}}</td><td>{{.Summary.DIDs.Removed}}</td><td>{{.Summary.DIDs.Modified}}</td></tr>
<tr><td>Queues</td><td>{{.Summary.Queues.Added}}</td><td>{{.Summary.Queues.Removed}}</td><td>{{.Summary.Queues.Modified}}</td></tr>
</table>

{{if .ChangeSet.ExtensionsAdded}}
<h2 class="added">Extensions added</h2>
<ul>{{range .ChangeSet.ExtensionsAdded}}<li><b>{{.Code}}</b> {{.Name}}</li>{{end}}</ul>
{{end}}
{{if .ChangeSet.ExtensionsRemoved}}
<h2 class="removed">Extensions removed</h2>
<ul>{{range .ChangeSet.ExtensionsRemoved}}<li><b>{{.Code}}</b> {{.Name}}</li>{{end}}</ul>
{{end}}
{{if .ExtMods}}
<h2 class="modified">Extensions modified</h2>
{{range .ExtMods}}
<p><b>{{.Identity}}</b></p>
<table>
<tr><th>Field</th><th>Before</th><th>After</th></tr>
{{range .Changes}}<tr><td>{{field .}}</td><td>{{before .}}</td><td>{{after .}}</td></tr>
{{end}}
</table>
{{end}}
{{end}}

{{if .ChangeSet.DIDsAdded}}
<h2 class="added">Inbound numbers added</h2>
<ul>{{range .ChangeSet.DIDsAdded}}<li><b>{{.Number}}</b> {{.Announcement}}</li>{{end}}</ul>
{{end}}
{{if .ChangeSet.DIDsRemoved}}
<h2 class="removed">Inbound numbers removed</h2>
<ul>{{range .ChangeSet.DIDsRemoved}}<li><b>{{.Number}}</b></li>{{end}}</ul>
{{end}}
{{if .DIDMods}}
<h2 class="modified">Inbound numbers modified</h2>
{{range .DIDMods}}
<p><b>{{.Identity}}</b></p>
<table>
<tr><th>Field</th><th>Before</th><th>After</th></tr>
{{range .Changes}}<tr><td>{{field .}}</td><td>{{before .}}</td><td>{{after .}}</td></tr>
{{end}}
</table>
{{end}}
{{end}}

{{if .ChangeSet.QueuesAdded}}
<h2 class="added">Queues added</h2>
<ul>{{range .ChangeSet.QueuesAdded}}<li><b>{{.Name}}</b> ({{len .Members}} members)</li>{{end}}</ul>
{{end}}
{{if .ChangeSet.QueuesRemoved}}
<h2 class="removed">Queues removed</h2>
<ul>{{range .ChangeSet.QueuesRemoved}}<li><b>{{.Name}}</b></li>{{end}}</ul>
{{end}}
{{if .ChangeSet.QueuesModified}}
<h2 class="modified">Queues modified</h2>
{{range .ChangeSet.QueuesModified}}
<p><b>{{.Name}}</b></p>
<ul>
{{range .Delta.Added}}<li class="added">member joined: {{.ExtensionRef}} ({{.State}})</li>{{end}}
{{range .Delta.Removed}}<li class="removed">member left: {{.ExtensionRef}}</li>{{end}}
{{range .Delta.StateChanges}}<li class="modified">member {{.ExtensionRef}}: {{.From}} to {{.To}}</li>{{end}}
</ul>
{{end}}
{{end}}

{{if not .ChangeSet.HasChanges}}
<p class="empty">No changes detected.</p>
{{end}}
{{end}}
</body>
</html>
`))
