// internal/workers/communication/send-match-digest/templates.go
package sendmatchdigest

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"gradmatch-workers/internal/matching"
	"gradmatch-workers/internal/models"
)

type digestSection struct {
	Title   string
	Matches []digestLine
}

type digestLine struct {
	University string
	Program    string
	Score      string
	Reason     string
	Estimated  bool
}

type digestView struct {
	Name     string
	Total    int
	Sections []digestSection
}

var sectionTitles = map[models.Category]string{
	models.CategoryReach:  "Reach",
	models.CategoryTarget: "Target",
	models.CategorySafety: "Safety",
}

const textBody = `Hi {{.Name}},

We found {{.Total}} programs that fit your profile.
{{range .Sections}}
{{.Title}}
{{range .Matches}}  - {{.University}}, {{.Program}} ({{.Score}}){{if .Estimated}} *{{end}}
{{end}}{{end}}
* admission rate estimated
`

const htmlBody = `<p>Hi {{.Name}},</p>
<p>We found {{.Total}} programs that fit your profile.</p>
{{range .Sections}}<h3>{{.Title}}</h3>
<ul>{{range .Matches}}
<li><strong>{{.University}}</strong>, {{.Program}} ({{.Score}}){{if .Estimated}} <em>estimated admission rate</em>{{end}}{{if .Reason}}<br>{{.Reason}}{{end}}</li>{{end}}
</ul>
{{end}}`

var (
	textTmpl = texttemplate.Must(texttemplate.New("digest-text").Parse(textBody))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("digest-html").Parse(htmlBody))
)

// buildView keeps at most topN matches per category, in ranked order.
// Empty categories are left out.
func buildView(name string, matches []models.Match, total, topN int) digestView {
	if strings.TrimSpace(name) == "" {
		name = "there"
	}
	if total < len(matches) {
		total = len(matches)
	}
	view := digestView{Name: name, Total: total}
	for _, g := range matching.GroupByCategory(matches) {
		if len(g.Matches) == 0 {
			continue
		}
		picked := g.Matches
		if topN > 0 && len(picked) > topN {
			picked = picked[:topN]
		}
		section := digestSection{Title: sectionTitles[g.Category]}
		for _, m := range picked {
			line := digestLine{
				University: m.University.Name,
				Program:    m.Program.Name,
				Score:      fmt.Sprintf("%.0f%%", m.OverallScore*100),
				Estimated:  m.LowConfidence,
			}
			if len(m.Reasoning) > 0 {
				line.Reason = m.Reasoning[0]
			}
			section.Matches = append(section.Matches, line)
		}
		view.Sections = append(view.Sections, section)
	}
	return view
}

func render(view digestView) (html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := htmlTmpl.Execute(&hb, view); err != nil {
		return "", "", fmt.Errorf("render html digest: %w", err)
	}
	if err := textTmpl.Execute(&tb, view); err != nil {
		return "", "", fmt.Errorf("render text digest: %w", err)
	}
	return hb.String(), tb.String(), nil
}
