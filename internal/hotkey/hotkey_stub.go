//go:build !windows

package hotkey

import "log"

func (m *Manager) startPlatform() error {
	log.Println("Hotkey: global hooks not supported on this platform.")
	return nil
}
