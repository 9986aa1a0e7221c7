package web

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"
	"time"
)

//go:embed templates/*.html static
var content embed.FS

// Templates parses the embedded page templates. Each page file is registered under its base name.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs()).ParseFS(content, "templates/*.html")
}

// Static returns the embedded static assets rooted at the static directory.
func Static() (fs.FS, error) {
	return fs.Sub(content, "static")
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"isVideo": func(url *string) bool {
			if url == nil {
				return false
			}
			lower := strings.ToLower(*url)
			return strings.HasSuffix(lower, ".mp4") || strings.HasSuffix(lower, ".webm")
		},
	}
}
