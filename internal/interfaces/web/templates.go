package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

func ParseTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"describe": describe,
	}).ParseFS(templatesFS, "templates/*.html")
}
