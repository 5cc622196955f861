// Package cli implements the server's one human-facing surface: an
// interactive startup prompt choosing the score backend, and an
// Escape-triggers-shutdown watcher for the rest of the run.
package cli

import "github.com/gdamore/tcell/v2"

// Mode is the score backend the operator selected at startup.
type Mode int

const (
	ModeLocal Mode = iota
	ModeDatabase
)

const promptText = "Blue Tetris Server -- press 's' for database mode, any other key for local mode"

// Prompt opens a terminal screen and blocks for a single keypress: 's'
// selects database mode, anything else selects local mode. The screen is
// left open on return; pass it to WatchShutdown to keep serving the
// Escape-triggers-shutdown behavior for the rest of the run.
func Prompt() (tcell.Screen, Mode, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, ModeLocal, err
	}
	if err := screen.Init(); err != nil {
		return nil, ModeLocal, err
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()
	for i, r := range promptText {
		screen.SetContent(i, 0, r, nil, tcell.StyleDefault)
	}
	screen.Show()

	for {
		ev := screen.PollEvent()
		key, ok := ev.(*tcell.EventKey)
		if !ok {
			continue
		}
		mode := ModeLocal
		if key.Rune() == 's' || key.Rune() == 'S' {
			mode = ModeDatabase
		}
		return screen, mode, nil
	}
}

// WatchShutdown polls screen for the Escape (or Ctrl-C) key in its own
// goroutine and closes the returned channel when seen, so callers can
// select on it alongside a listener's other shutdown triggers.
func WatchShutdown(screen tcell.Screen) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			key, ok := ev.(*tcell.EventKey)
			if !ok {
				continue
			}
			if key.Key() == tcell.KeyEscape || key.Key() == tcell.KeyCtrlC {
				return
			}
		}
	}()
	return done
}
