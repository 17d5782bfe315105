package pages

import (
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"join": strings.Join,
}

var templates = template.Must(template.New("pages").Funcs(funcs).Parse(`
{{define "message"}}{{.}}
{{end}}

{{define "nav"}}{{if .Authenticated}}Signed in{{with .Identity}} as {{.}}{{end}}  [dashboard] [logout]
{{else}}Not signed in  [login] [register]
{{end}}{{end}}

{{define "posts"}}{{range .}}[{{.ID}}] {{.Title}}
    {{.Date}} | {{.Category}}
    {{.Excerpt}}
    Read more: post {{.ID}}

{{end}}{{end}}

{{define "post"}}{{.Title}}
{{.Date}} | {{.Category}}

{{.Content}}
{{if .CanEdit}}
[edit {{.ID}}] [delete {{.ID}}]
{{end}}{{end}}

{{define "dashboard"}}{{range .}}[{{.ID}}] {{.Title}}
    {{.Date}}
    [edit {{.ID}}] [delete {{.ID}}]
{{end}}{{end}}

{{define "categories"}}Categories
Pick a category to list its posts.
{{range .}}  #{{.}}
{{end}}{{end}}

{{define "archive"}}Archive
Pick a year and month to list its posts.
{{range .}}{{.Year}}
  {{join .Links " "}}
{{end}}{{end}}
`))
