// Package views holds the HTML templates of the board.
package views

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed layout.html posts/*.html
var files embed.FS

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
}

// pages maps a template name to the page file rendered inside the layout.
var pages = map[string]string{
	"index": "posts/index.html",
	"show":  "posts/show.html",
	"form":  "posts/form.html",
}

// Parse parses every page together with the layout. Pages render through the
// "layout" template.
func Parse() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(pages))
	for name, page := range pages {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(files, "layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

// MustParse is Parse for start-up code.
func MustParse() map[string]*template.Template {
	templates, err := Parse()
	if err != nil {
		panic(err)
	}
	return templates
}
