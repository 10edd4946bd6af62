//go:build !windows

package autostart

import "errors"

var errUnsupported = errors.New("autostart is only available on Windows")

// Install is unavailable outside Windows.
func Install() error { return errUnsupported }

// Uninstall is unavailable outside Windows.
func Uninstall() error { return errUnsupported }
