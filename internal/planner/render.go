package planner

import (
	"io"
	"sync"
	"text/template"
)

var summaryTmpl = template.Must(template.New("summary").Parse(`Route {{.Index}}
  Distance:      {{.Distance}}
  Duration:      {{.Duration}}
  Traffic Delay: {{.TrafficDelay}}
  Emissions:     {{.Emissions}}
  Traffic Locations:
{{- range .TrafficLocations}}
    - {{.}}
{{- end}}
  Weather Data:
{{- range .Weather}}
    - {{.Location}}: {{.Weather}}
{{- end}}
`))

// WriteSummary renders one summary block as plain text.
func WriteSummary(w io.Writer, s Summary) error {
	return summaryTmpl.Execute(w, s)
}

// TextResults is a Results container that keeps the current blocks and
// writes each appended block to W.
type TextResults struct {
	W io.Writer

	mu     sync.Mutex
	blocks []Summary
}

func (r *TextResults) Clear() {
	r.mu.Lock()
	r.blocks = nil
	r.mu.Unlock()
}

func (r *TextResults) Append(s Summary) {
	r.mu.Lock()
	r.blocks = append(r.blocks, s)
	r.mu.Unlock()
	if r.W != nil {
		_ = WriteSummary(r.W, s)
		_, _ = io.WriteString(r.W, "\n")
	}
}

// Blocks returns the summaries currently shown.
func (r *TextResults) Blocks() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Summary(nil), r.blocks...)
}
