package steps

import (
	"path"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Artifact is one source file travelling through a pipeline.
type Artifact struct {
	// Path is the request path relative to the build context, slash separated.
	Path string
	// File is the absolute path on disk, if the artifact came from disk.
	File string
	// Query is the request query including "?", or empty.
	Query string

	Contents []byte
	// Loader tells the bundling engine how to parse Contents.
	Loader api.Loader

	// SideEffects keeps the module even when nothing imports its bindings.
	SideEffects bool
	// Inject marks CSS that must be linked from the HTML entry.
	Inject bool
	// URL is set when the contents were replaced by a module exporting the
	// URL of the file, either a data URL or the public URL of an emitted copy.
	URL string
}

// NewArtifact splits a request into path and query.
func NewArtifact(request, file string, contents []byte) *Artifact {
	p, query, found := strings.Cut(request, "?")
	a := &Artifact{
		Path:     p,
		File:     file,
		Contents: contents,
		Loader:   api.LoaderDefault,
	}
	if found {
		a.Query = "?" + query
	}
	return a
}

// Ext returns the lowercased extension of the artifact path without the dot.
func (a *Artifact) Ext() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(a.Path), "."))
}

// Request returns the path with its query.
func (a *Artifact) Request() string {
	return a.Path + a.Query
}

// IsCSS reports whether the contents are stylesheet source.
func (a *Artifact) IsCSS() bool {
	switch a.Loader {
	case api.LoaderCSS, api.LoaderLocalCSS, api.LoaderGlobalCSS:
		return true
	}
	return false
}
