/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package timeline

import (
	"strconv"

	"github.com/friendsincode/grimnir_timeline/internal/dom"
)

// CSS class names used by the default renderers.
const (
	CSSControl    = "timeline-control"
	CSSButton     = "timeline-control__button"
	CSSTimeline   = "timeline-control__timeline"
	CSSSlot       = "timeline-control__slot"
	CSSActiveSlot = "timeline-control__slot--active"
)

// Data attributes set on every slot.
const (
	DataDate  = "date"
	DataIndex = "index"
)

// renderLocked rebuilds the button and the full slot list under root.
// Caller holds c.mu.
func (c *Controller) renderLocked() {
	if c.root == nil {
		return
	}
	c.root.Empty()
	c.button = c.renderButton()
	if c.button != nil {
		c.root.AppendChild(c.button)
	}

	list := dom.Create("div", CSSTimeline, c.root)
	for i := range c.steps {
		slot := c.renderSlot(i == c.index)
		label := c.labels[i]
		slot.SetData(DataDate, label)
		slot.SetData(DataIndex, strconv.Itoa(i))
		slot.SetText(label)

		index := i
		slot.AddEventListener("click", func() {
			if err := c.Select(index); err != nil {
				c.logger.Warn().Err(err).Int("index", index).Msg("slot selection rejected")
			}
		})
		list.AppendChild(slot)
	}
}

func (c *Controller) renderButton() *dom.Element {
	var el *dom.Element
	if c.opts.Button.Render != nil {
		el = c.opts.Button.Render()
		if el == nil {
			return nil
		}
	} else {
		el = dom.Create("button", CSSButton, nil)
	}

	if c.playing {
		el.SetText(c.opts.Button.PlayingText)
	} else {
		el.SetText(c.opts.Button.PausedText)
	}
	el.AddEventListener("click", func() {
		if err := c.Toggle(); err != nil {
			c.logger.Warn().Err(err).Msg("playback toggle rejected")
		}
	})
	return el
}

func (c *Controller) renderSlot(active bool) *dom.Element {
	tl := c.opts.Timeline
	var el *dom.Element
	switch {
	case active && tl.RenderActiveSlot != nil:
		el = tl.RenderActiveSlot()
	case tl.RenderSlot != nil:
		el = tl.RenderSlot()
	}
	if el == nil {
		el = dom.Create("div", CSSSlot, nil)
	}
	if active {
		el.AddClass(CSSActiveSlot)
	} else {
		el.RemoveClass(CSSActiveSlot)
	}
	return el
}
