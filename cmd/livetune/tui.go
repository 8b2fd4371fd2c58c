package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/livetune"
)

// highlightWindow is how long a changed row stays highlighted.
const highlightWindow = 2 * time.Second

// watchScreen renders a watched parameter file as a full-screen table.
// All drawing and all Params calls happen on the run loop goroutine; the
// tcell event goroutine only signals it through channels.
type watchScreen struct {
	screen  tcell.Screen
	params  *livetune.Params
	changed map[string]time.Time
}

func runWatchScreen(params *livetune.Params, interval time.Duration) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.HideCursor()

	view := &watchScreen{
		screen:  screen,
		params:  params,
		changed: make(map[string]time.Time),
	}
	params.Subscribe("*", func(c livetune.Change) {
		view.changed[c.Key] = time.Now()
	})

	quit := make(chan struct{})
	refresh := make(chan struct{}, 1)
	resized := make(chan struct{}, 1)
	go func() {
		for {
			event := screen.PollEvent()
			if event == nil {
				// Fini was called; the screen is gone.
				return
			}
			switch ev := event.(type) {
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q':
					close(quit)
					return
				case ev.Rune() == 'r':
					select {
					case refresh <- struct{}{}:
					default:
					}
				}
			case *tcell.EventResize:
				select {
				case resized <- struct{}{}:
				default:
				}
			}
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM)

	params.StartWatching()
	view.draw()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return nil
		case <-signals:
			return nil
		case <-refresh:
			params.InvalidateCache()
			params.Update()
			view.draw()
		case <-resized:
			view.screen.Sync()
			view.draw()
		case <-ticker.C:
			params.Poll()
			view.draw()
		}
	}
}

func (v *watchScreen) draw() {
	v.screen.Clear()
	width, height := v.screen.Size()

	header := fmt.Sprintf(" %s (%s)", v.params.File(), v.params.FileFormat())
	v.drawText(0, 0, width, tcell.StyleDefault.Reverse(true), pad(header, width))

	values := v.params.Values()
	keys := make([]string, 0, len(values))
	keyWidth := 0
	for k := range values {
		keys = append(keys, k)
		if len(k) > keyWidth {
			keyWidth = len(k)
		}
	}
	sort.Strings(keys)
	if keyWidth > 32 {
		keyWidth = 32
	}

	now := time.Now()
	row := 2
	if len(keys) == 0 {
		v.drawText(1, row, width-1, tcell.StyleDefault.Dim(true), "(no values)")
	}
	for _, k := range keys {
		if row >= height-1 {
			break
		}
		style := tcell.StyleDefault
		if ts, ok := v.changed[k]; ok {
			if now.Sub(ts) < highlightWindow {
				style = style.Foreground(tcell.ColorGreen).Bold(true)
			} else {
				delete(v.changed, k)
			}
		}
		v.drawText(1, row, width-1, style, fmt.Sprintf("%-*s  %s", keyWidth, k, values[k]))
		row++
	}

	status := " q quit  r reload"
	style := tcell.StyleDefault.Reverse(true)
	if info := v.params.LastError(); info.HasError() {
		status = " " + info.String()
		style = tcell.StyleDefault.Foreground(tcell.ColorRed).Reverse(true)
	}
	v.drawText(0, height-1, width, style, pad(status, width))

	v.screen.Show()
}

// drawText writes text at (x, y), clipped to maxWidth cells.
func (v *watchScreen) drawText(x, y, maxWidth int, style tcell.Style, text string) {
	col := x
	for _, r := range text {
		if col >= x+maxWidth {
			break
		}
		v.screen.SetContent(col, y, r, nil, style)
		col++
	}
}

// pad right-pads s with spaces to width so full-width styles render.
func pad(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}
