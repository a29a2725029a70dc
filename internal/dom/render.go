/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package dom

import (
	"bytes"
	"io"
	"sort"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node converts the element tree into an x/net/html node tree.
func (e *Element) Node() *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     e.tag,
		DataAtom: atom.Lookup([]byte(e.tag)),
	}
	if len(e.classes) > 0 {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: e.ClassName()})
	}

	keys := make([]string, 0, len(e.data))
	for k := range e.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Attr = append(n.Attr, html.Attribute{Key: "data-" + k, Val: e.data[k]})
	}

	if e.text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: e.text})
	}
	for _, c := range e.children {
		n.AppendChild(c.Node())
	}
	return n
}

// Render writes the element tree as HTML.
func (e *Element) Render(w io.Writer) error {
	return html.Render(w, e.Node())
}

// HTML renders the element tree to a string.
func (e *Element) HTML() (string, error) {
	var buf bytes.Buffer
	if err := e.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
