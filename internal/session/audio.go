package session

import "github.com/gen2brain/beeep"

// Play a falling tone when the device goes away.
func (m Model) playDisconnected() {
	if !m.beep {
		return
	}
	go func() {
		beeep.Beep(600, 150)
		beeep.Beep(400, 300)
	}()
}

// Play a rising tone when the port opens.
func (m Model) playConnected() {
	if !m.beep {
		return
	}
	go func() {
		beeep.Beep(600, 100)
		beeep.Beep(800, 150)
	}()
}
