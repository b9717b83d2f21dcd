// Package html writes the HTML entry page. The page template is executed
// with html/template and every bundle output is then linked from it: styles
// at the end of <head>, scripts at the end of <body>.
package html

import (
	"bytes"
	htmltemplate "html/template"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/arthur-debert/bundl/pkg/errors"
)

// DefaultTemplate is used when the project has no template file.
const DefaultTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div id="app"></div>
</body>
</html>
`

// Page is the data a template is executed with.
type Page struct {
	Title   string
	Env     map[string]string
	Scripts []string
	Styles  []string
	// Module loads scripts as ES modules instead of deferred classic scripts.
	Module bool
}

// Render executes tmpl and injects the page's scripts and styles. URLs the
// template already references are not injected twice.
func Render(name string, tmpl []byte, page Page) ([]byte, error) {
	if len(bytes.TrimSpace(tmpl)) == 0 {
		tmpl = []byte(DefaultTemplate)
	}

	t, err := htmltemplate.New(name).Option("missingkey=zero").Parse(string(tmpl))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTemplate, "cannot parse %s", name)
	}
	var executed bytes.Buffer
	if err := t.Execute(&executed, page); err != nil {
		return nil, errors.Wrapf(err, errors.ErrTemplate, "cannot execute %s", name)
	}

	doc, err := html.Parse(&executed)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTemplate, "cannot parse output of %s", name)
	}

	head := find(doc, atom.Head)
	body := find(doc, atom.Body)
	if head == nil || body == nil {
		return nil, errors.Newf(errors.ErrTemplate, "%s has no head or body", name)
	}

	present := referenced(doc)
	for _, href := range page.Styles {
		if present[href] {
			continue
		}
		head.AppendChild(element(atom.Link, html.Attribute{Key: "href", Val: href}, html.Attribute{Key: "rel", Val: "stylesheet"}))
		present[href] = true
	}
	for _, src := range page.Scripts {
		if present[src] {
			continue
		}
		kind := html.Attribute{Key: "defer"}
		if page.Module {
			kind = html.Attribute{Key: "type", Val: "module"}
		}
		body.AppendChild(element(atom.Script, kind, html.Attribute{Key: "src", Val: src}))
		present[src] = true
	}

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrTemplate, "cannot render %s", name)
	}
	if !strings.HasSuffix(out.String(), "\n") {
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

// referenced collects the src of scripts and href of stylesheet links.
func referenced(n *html.Node) map[string]bool {
	refs := make(map[string]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script:
				if v := attr(n, "src"); v != "" {
					refs[v] = true
				}
			case atom.Link:
				if v := attr(n, "href"); v != "" {
					refs[v] = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return refs
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
