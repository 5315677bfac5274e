package templates

import (
	"embed"
	"html/template"

	"github.com/Oudwins/tailwind-merge-go/pkg/twmerge"
)

//go:embed *.html
var files embed.FS

// New parses the embedded page and fragment templates for gin's HTML
// renderer.
func New() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"cls": func(classes ...string) string {
			return twmerge.Merge(classes...)
		},
	}).ParseFS(files, "*.html")
}
