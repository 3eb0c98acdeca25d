package hid

import (
	"io/fs"
	"strings"
	"syscall"

	"codeberg.org/mutker/deepcoolctl/internal/errors"
)

const (
	// Discovery errors
	ErrEnumerateFailed = errors.ErrorCode("hid_enumerate_failed")
	ErrDeviceNotFound  = errors.ErrorCode("hid_device_not_found")

	// Open errors
	ErrPermissionDenied = errors.ErrorCode("hid_permission_denied")
	ErrDeviceBusy       = errors.ErrorCode("hid_device_busy")
	ErrOpenFailed       = errors.ErrorCode("hid_open_failed")

	// Transport errors
	ErrDisconnected = errors.ErrorCode("hid_disconnected")
	ErrWriteTimeout = errors.ErrorCode("hid_write_timeout")
	ErrWriteFailed  = errors.ErrorCode("hid_write_failed")

	// Lifecycle errors
	ErrInitFailed     = errors.ErrorCode("hid_init_failed")
	ErrSessionClosed  = errors.ErrorCode("hid_session_closed")
	ErrShutdownFailed = errors.ErrorCode("hid_shutdown_failed")
)

// classifyOpen maps an open failure onto the error taxonomy. hidapi
// reports most failures as strings, so substring matching backs up the
// errno checks.
func classifyOpen(err error) errors.ErrorCode {
	switch {
	case errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM):
		return ErrPermissionDenied
	case errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ENODEV):
		return ErrDeviceNotFound
	case errors.Is(err, syscall.EBUSY):
		return ErrDeviceBusy
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission") || strings.Contains(msg, "access denied"):
		return ErrPermissionDenied
	case strings.Contains(msg, "no such"):
		return ErrDeviceNotFound
	case strings.Contains(msg, "busy"):
		return ErrDeviceBusy
	default:
		return ErrOpenFailed
	}
}

// isNoDeviceError matches hidapi's "nothing enumerated" errors.
func isNoDeviceError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found in the system") ||
		strings.Contains(msg, "no hid devices")
}

// classifyWrite maps a write failure onto the error taxonomy. An unplug
// mid-session surfaces as ENODEV/EIO from hidraw.
func classifyWrite(err error) errors.ErrorCode {
	switch {
	case errors.Is(err, syscall.ENODEV) || errors.Is(err, syscall.ENXIO) ||
		errors.Is(err, syscall.EIO) || errors.Is(err, fs.ErrClosed):
		return ErrDisconnected
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such device") || strings.Contains(msg, "disconnect") ||
		strings.Contains(msg, "input/output error") || strings.Contains(msg, "not connected"):
		return ErrDisconnected
	default:
		return ErrWriteFailed
	}
}
