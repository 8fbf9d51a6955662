// Package web carries the embedded server-rendered templates.
package web

import (
	"embed"
	"html/template"
	"path"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"fmtDate": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"fmtTime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
	"fileBase": path.Base,
}

// Parse builds the template set used by the HTML renderer.
func Parse() *template.Template {
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}
