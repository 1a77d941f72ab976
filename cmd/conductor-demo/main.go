// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/conductor-demo/main.go
// Summary: Interactive terminal demo of the coordination core.
//
// Two participants (a tree and a dropdown) share the registry. Tab moves
// focus between them, arrow keys run through the keyboard router, F5
// requests an animation, and the bottom pane tails the unified event
// stream. Esc or Ctrl-C exits.

package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	conductor "github.com/framegrace/conductor"
	"github.com/framegrace/conductor/announce"
	"github.com/framegrace/conductor/coord"
	"github.com/framegrace/conductor/keyboard"
	"github.com/framegrace/conductor/motion"
)

const eventLogSize = 12

type eventLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *eventLog) add(line string) {
	l.mu.Lock()
	l.lines = append(l.lines, line)
	if len(l.lines) > eventLogSize {
		l.lines = l.lines[len(l.lines)-eventLogSize:]
	}
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

func main() {
	logArea := &eventLog{}
	refresh := make(chan struct{}, 1)
	notify := func() {
		select {
		case refresh <- struct{}{}:
		default:
		}
	}

	c, err := conductor.New(conductor.Options{
		OnEvent: func(ev coord.SystemEvent) {
			logArea.add(fmt.Sprintf("%s %-22s %s", ev.Timestamp.Format("15:04:05.000"), ev.Type, ev.ParticipantID))
			notify()
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer c.Dispose()

	c.Register(coord.Registration{ID: "file-tree", Category: coord.CategoryTree, CognitiveLoad: 4})
	c.Register(coord.Registration{ID: "branch-picker", Category: coord.CategoryDropdown, CognitiveLoad: 3})

	for _, id := range []string{"file-tree", "branch-picker"} {
		pid := id
		cat := coord.CategoryTree
		if pid == "branch-picker" {
			cat = coord.CategoryDropdown
		}
		c.Keyboard().RegisterHandler(keyboard.Binding{
			ParticipantID: pid,
			Category:      cat,
			Action: func(action string, _ *tcell.EventKey) {
				c.Announcer().AnnounceForMenu(pid, pid+": "+action, announce.AnnounceOptions{Duration: 2 * time.Second})
			},
		})
	}

	tracker := c.Focus().(*coord.FocusTracker)
	tracker.SetFocused("file-tree")
	c.Registry().RequestAttention("file-tree")

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	draw := func() {
		screen.Clear()
		focused, _ := tracker.FocusedMenuID()
		used, avail, pct := c.Motion().BudgetStatus()
		status := fmt.Sprintf("focus=%s attention=%s load=%d/%d motion=%.0f used %.0f free (%.0f%%) search=%q",
			focused, c.Registry().AttentionOwner(),
			c.Registry().CognitiveLoad(), c.Registry().Budget(),
			used, avail, pct, c.Keyboard().SearchTerm())
		drawText(screen, 0, 0, tcell.StyleDefault.Bold(true), status)
		drawText(screen, 0, 1, tcell.StyleDefault, "Tab: switch focus  F5: animate  arrows/letters: route  Esc: quit")
		for i, line := range logArea.snapshot() {
			drawText(screen, 0, 3+i, tcell.StyleDefault, line)
		}
		screen.Show()
	}
	draw()

	for {
		select {
		case <-quit:
			return
		case <-refresh:
			draw()
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
				draw()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlC {
					return
				}
				if ev.Key() == tcell.KeyEscape && !c.Keyboard().SearchActive() {
					return
				}
				if ev.Key() == tcell.KeyTab {
					if id, _ := tracker.FocusedMenuID(); id == "file-tree" {
						tracker.SetFocused("branch-picker")
						c.Registry().RequestAttention("branch-picker")
					} else {
						tracker.SetFocused("file-tree")
						c.Registry().RequestAttention("file-tree")
					}
					draw()
					continue
				}
				if ev.Key() == tcell.KeyF5 {
					if id, ok := tracker.FocusedMenuID(); ok {
						c.Motion().Request(motion.NewRequest(id, motion.MotionFade, motion.DurationStandard))
					}
					draw()
					continue
				}
				c.Keyboard().HandleKey(ev)
				draw()
			}
		}
	}
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	w, _ := s.Size()
	col := x
	for _, r := range text {
		if col >= w {
			break
		}
		s.SetContent(col, y, r, nil, style)
		col++
	}
}
