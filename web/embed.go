// Package web embeds the page templates and the files served under /static/.
package web

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed static templates
var content embed.FS

var (
	staticFS    = sub("static")
	templatesFS = sub("templates")
)

func sub(dir string) fs.FS {
	f, err := fs.Sub(content, dir)
	if err != nil {
		panic(fmt.Sprintf("embedded %s directory: %v", dir, err))
	}
	return f
}

// StaticFS holds style.css and the browser scripts.
func StaticFS() fs.FS { return staticFS }

// TemplatesFS holds layout.html and one file per page.
func TemplatesFS() fs.FS { return templatesFS }
