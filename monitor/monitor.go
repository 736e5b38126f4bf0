// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package monitor shows the composed frames of a compositor in a terminal.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/gogpu/xrlayer/compositor"
	"github.com/gogpu/xrlayer/native"
)

// Action is what a key press asks the monitor to do.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionPause
	ActionStep
)

var (
	titleStyle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	headerStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Underline(true)
	rowStyle    = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorTeal)
	helpStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// columns of the layer table: header and width.
var columns = []struct {
	title string
	width int
}{
	{"ORDER", 7},
	{"ID", 5},
	{"TYPE", 28},
	{"SWAPCHAIN", 12},
	{"EXTENT", 12},
	{"FLAGS", 6},
}

// Source produces the next frame and a status line.
type Source func() (compositor.Frame, string)

// Monitor draws frames on a tcell screen.
type Monitor struct {
	screen tcell.Screen
	paused bool
}

// New returns a monitor drawing on screen. The screen must be initialized;
// the caller finalizes it.
func New(screen tcell.Screen) *Monitor {
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()
	return &Monitor{screen: screen}
}

// Paused reports whether frame updates are paused.
func (m *Monitor) Paused() bool { return m.paused }

// HandleEvent maps a key event to an action: q, Esc and Ctrl-C quit, p or
// space toggles pause and s steps one frame while paused.
func (m *Monitor) HandleEvent(ev tcell.Event) Action {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		m.screen.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return ActionQuit
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q', 'Q':
				return ActionQuit
			case 'p', 'P', ' ':
				m.paused = !m.paused
				return ActionPause
			case 's', 'S':
				if m.paused {
					return ActionStep
				}
			}
		}
	}
	return ActionNone
}

// Draw renders f as a table with status at the bottom.
func (m *Monitor) Draw(f compositor.Frame, status string) {
	m.screen.Clear()
	w, h := m.screen.Size()

	title := fmt.Sprintf("xrlayers  frame %d  layers %d  default flags %s",
		f.Index, len(f.Layers), flagString(f.DefaultFlags))
	if m.paused {
		title += "  [paused]"
	}
	m.text(0, 0, w, title, titleStyle)

	x := 0
	for _, c := range columns {
		m.text(x, 2, c.width, c.title, headerStyle)
		x += c.width + 1
	}

	y := 3
	for i, l := range f.Layers {
		if y >= h-2 {
			break
		}
		if left := len(f.Layers) - i; y == h-3 && left > 1 {
			m.text(0, y, w, fmt.Sprintf("... %d more", left), rowStyle)
			break
		}
		cells := []string{
			fmt.Sprint(l.Order),
			fmt.Sprint(l.ID),
			strings.TrimPrefix(l.Type.String(), "CompositionLayer"),
			swapchains(l.Swapchains),
			extent(l),
			flagString(l.Flags),
		}
		x := 0
		for i, c := range columns {
			m.text(x, y, c.width, cells[i], rowStyle)
			x += c.width + 1
		}
		y++
	}

	if h > 1 {
		m.fill(h-2, w, statusStyle)
		m.text(0, h-2, w, status, statusStyle)
	}
	m.text(0, h-1, w, "q quit  p pause  s step", helpStyle)
	m.screen.Show()
}

// Run pulls a frame from next every interval and draws it until a quit key
// is pressed or ctx is done.
func (m *Monitor) Run(ctx context.Context, next Source, interval time.Duration) error {
	events := make(chan tcell.Event)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := m.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	m.Draw(next())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			switch m.HandleEvent(ev) {
			case ActionQuit:
				return nil
			case ActionStep:
				m.Draw(next())
			}
		case <-ticker.C:
			if !m.paused {
				m.Draw(next())
			}
		}
	}
}

func (m *Monitor) text(x, y, width int, s string, style tcell.Style) {
	for _, r := range s {
		if width <= 0 {
			return
		}
		m.screen.SetContent(x, y, r, nil, style)
		x++
		width--
	}
}

func (m *Monitor) fill(y, width int, style tcell.Style) {
	for x := range width {
		m.screen.SetContent(x, y, ' ', nil, style)
	}
}

func swapchains(s [2]uint64) string {
	if s[1] != 0 {
		return fmt.Sprintf("%d/%d", s[0], s[1])
	}
	return fmt.Sprint(s[0])
}

func extent(l compositor.FrameLayer) string {
	if l.Extent.Width == 0 && l.Extent.Height == 0 {
		return "-"
	}
	return fmt.Sprintf("%dx%d", l.Extent.Width, l.Extent.Height)
}

// flagString abbreviates layer flags: C chromatic aberration, S source
// alpha, U unpremultiplied.
func flagString(f native.LayerFlags) string {
	var b strings.Builder
	for _, fl := range []struct {
		flag native.LayerFlags
		c    byte
	}{
		{native.FlagCorrectChromaticAberration, 'C'},
		{native.FlagSourceAlpha, 'S'},
		{native.FlagUnpremultipliedAlpha, 'U'},
	} {
		if f.Has(fl.flag) {
			b.WriteByte(fl.c)
		}
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}
