/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package dom is a minimal element tree used by the timeline control as
// its rendering surface. Hosts insert the control's root into their own
// container and serialize the tree (HTML, text) however they need.
package dom

import (
	"strings"
)

// Element is a node in the control's element tree. Elements are not safe
// for concurrent use; the owner of the tree serializes access.
type Element struct {
	tag       string
	classes   []string
	text      string
	data      map[string]string
	parent    *Element
	children  []*Element
	listeners map[string][]func()
}

// Create builds an element with the given tag and space separated class
// names. When parent is non-nil the element is appended to it.
func Create(tag, className string, parent *Element) *Element {
	el := &Element{tag: strings.ToLower(tag)}
	for _, class := range strings.Fields(className) {
		el.AddClass(class)
	}
	if parent != nil {
		parent.AppendChild(el)
	}
	return el
}

// Tag returns the lower-cased tag name.
func (e *Element) Tag() string { return e.tag }

// ClassName returns the class list joined by spaces.
func (e *Element) ClassName() string { return strings.Join(e.classes, " ") }

// HasClass reports whether class is in the class list.
func (e *Element) HasClass(class string) bool {
	for _, c := range e.classes {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends class unless already present.
func (e *Element) AddClass(class string) {
	if class == "" || e.HasClass(class) {
		return
	}
	e.classes = append(e.classes, class)
}

// RemoveClass drops class from the class list.
func (e *Element) RemoveClass(class string) {
	for i, c := range e.classes {
		if c == class {
			e.classes = append(e.classes[:i], e.classes[i+1:]...)
			return
		}
	}
}

// SetText replaces the element's content with a text value.
func (e *Element) SetText(text string) {
	e.Empty()
	e.text = text
}

// Text returns the element's own text (not its descendants').
func (e *Element) Text() string { return e.text }

// TextContent returns the text of the element and all descendants.
func (e *Element) TextContent() string {
	var sb strings.Builder
	e.walk(func(el *Element) bool {
		sb.WriteString(el.text)
		return true
	})
	return sb.String()
}

// SetData sets a data-* attribute.
func (e *Element) SetData(key, value string) {
	if e.data == nil {
		e.data = make(map[string]string)
	}
	e.data[key] = value
}

// Data returns a data-* attribute.
func (e *Element) Data(key string) (string, bool) {
	v, ok := e.data[key]
	return v, ok
}

// AppendChild moves child under e, detaching it from any previous parent.
func (e *Element) AppendChild(child *Element) {
	if child == nil || child == e {
		return
	}
	child.Remove()
	child.parent = e
	e.children = append(e.children, child)
}

// Remove detaches e from its parent.
func (e *Element) Remove() {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	e.parent = nil
}

// Empty removes all children and text.
func (e *Element) Empty() {
	for _, c := range e.children {
		c.parent = nil
	}
	e.children = nil
	e.text = ""
}

// Parent returns the parent element or nil.
func (e *Element) Parent() *Element { return e.parent }

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	return append([]*Element(nil), e.children...)
}

// AddEventListener registers fn for the named event.
func (e *Element) AddEventListener(event string, fn func()) {
	if fn == nil {
		return
	}
	if e.listeners == nil {
		e.listeners = make(map[string][]func())
	}
	e.listeners[event] = append(e.listeners[event], fn)
}

// Dispatch invokes the listeners registered for event and returns how
// many ran.
func (e *Element) Dispatch(event string) int {
	handlers := make([]func(), len(e.listeners[event]))
	copy(handlers, e.listeners[event])
	for _, fn := range handlers {
		fn()
	}
	return len(handlers)
}

// Find returns the first descendant (depth first, excluding e) matching
// match, or nil.
func (e *Element) Find(match func(*Element) bool) *Element {
	var found *Element
	for _, c := range e.children {
		c.walk(func(el *Element) bool {
			if match(el) {
				found = el
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant (excluding e) matching match in
// document order.
func (e *Element) FindAll(match func(*Element) bool) []*Element {
	var out []*Element
	for _, c := range e.children {
		c.walk(func(el *Element) bool {
			if match(el) {
				out = append(out, el)
			}
			return true
		})
	}
	return out
}

// ByClass returns descendants carrying class.
func (e *Element) ByClass(class string) []*Element {
	return e.FindAll(func(el *Element) bool { return el.HasClass(class) })
}

// WithData returns descendants carrying the data-* attribute key.
func (e *Element) WithData(key string) []*Element {
	return e.FindAll(func(el *Element) bool {
		_, ok := el.data[key]
		return ok
	})
}

// walk visits e and its descendants in document order until visit
// returns false. It reports whether the walk ran to completion.
func (e *Element) walk(visit func(*Element) bool) bool {
	if !visit(e) {
		return false
	}
	for _, c := range e.children {
		if !c.walk(visit) {
			return false
		}
	}
	return true
}
