package notify

import (
	"html/template"
	"strings"
	"time"

	"github.com/CDMonsalveA/JobSearchTools/internal/domain"
)

var tmplFuncs = template.FuncMap{
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

var newPostingsTmpl = template.Must(template.New("new_postings").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 800px; margin: 0 auto;">
  <h2>{{.Count}} new job posting{{if ne .Count 1}}s{{end}} on {{.Source}}</h2>
  <p>{{.TotalScraped}} posting{{if ne .TotalScraped 1}}s{{end}} scanned at {{.At}}.</p>
  <ul>
  {{- range .Postings}}
    <li style="margin-bottom: 12px;">
      <a href="{{.URL}}"><strong>{{.Title}}</strong></a><br>
      {{.Company}}{{if .Location}} &mdash; {{.Location}}{{end}}
      {{- if .Salary}}<br>Salary: {{deref .Salary}}{{end}}
      {{- if .DatePosted}}<br>Posted: {{deref .DatePosted}}{{end}}
    </li>
  {{- end}}
  </ul>
</body>
</html>
`))

var zeroResultsTmpl = template.Must(template.New("zero_results").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 800px; margin: 0 auto;">
  <h2>Source {{.Source}} returned zero results</h2>
  <p>The run at {{.At}} completed without errors but found no postings.
  The site structure may have changed and the adapter may need attention.</p>
</body>
</html>
`))

func renderNewPostings(postings []domain.Posting, source string, totalScraped int) (string, error) {
	var b strings.Builder
	err := newPostingsTmpl.Execute(&b, map[string]any{
		"Source":       strings.ToUpper(source),
		"Count":        len(postings),
		"TotalScraped": totalScraped,
		"Postings":     postings,
		"At":           time.Now().Format("2006-01-02 15:04:05"),
	})
	return b.String(), err
}

func renderZeroResults(source string) (string, error) {
	var b strings.Builder
	err := zeroResultsTmpl.Execute(&b, map[string]any{
		"Source": strings.ToUpper(source),
		"At":     time.Now().Format("2006-01-02 15:04:05"),
	})
	return b.String(), err
}
