//go:build windows

package autostart

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

const (
	runKeyPath = `Software\Microsoft\Windows\CurrentVersion\Run`
	valueName  = "NoDPIProxy"
)

// Install registers the running binary under the per-user Run key so the
// proxy starts at login, pointing it at a blacklist next to the binary.
func Install() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("autostart: %w", err)
	}
	command := fmt.Sprintf(`"%s" --blacklist "%s"`, exe, filepath.Join(filepath.Dir(exe), "blacklist.txt"))

	key, _, err := registry.CreateKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("autostart: %w", err)
	}
	defer key.Close()

	if err := key.SetStringValue(valueName, command); err != nil {
		return fmt.Errorf("autostart: %w", err)
	}
	return nil
}

// Uninstall removes the Run key entry.
func Uninstall() error {
	key, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("autostart: %w", err)
	}
	defer key.Close()

	if err := key.DeleteValue(valueName); err != nil {
		return fmt.Errorf("autostart: not found in autostart: %w", err)
	}
	return nil
}
