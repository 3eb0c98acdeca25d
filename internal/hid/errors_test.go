package hid

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"

	"codeberg.org/mutker/deepcoolctl/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassifyOpen(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errors.ErrorCode
	}{
		{"fs permission", fs.ErrPermission, ErrPermissionDenied},
		{"EACCES", fmt.Errorf("open: %w", syscall.EACCES), ErrPermissionDenied},
		{"permission string", stderrors.New("hidapi: failed to open device: Permission denied"), ErrPermissionDenied},
		{"ENOENT", fmt.Errorf("open: %w", syscall.ENOENT), ErrDeviceNotFound},
		{"not-exist string", stderrors.New("open /dev/hidraw3: no such file or directory"), ErrDeviceNotFound},
		{"EBUSY", fmt.Errorf("open: %w", syscall.EBUSY), ErrDeviceBusy},
		{"unknown", stderrors.New("something else entirely"), ErrOpenFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyOpen(tt.err))
		})
	}
}

func TestClassifyWrite(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errors.ErrorCode
	}{
		{"ENODEV", fmt.Errorf("write: %w", syscall.ENODEV), ErrDisconnected},
		{"EIO", fmt.Errorf("write: %w", syscall.EIO), ErrDisconnected},
		{"closed handle", fs.ErrClosed, ErrDisconnected},
		{"unplug string", stderrors.New("hidapi: no such device"), ErrDisconnected},
		{"io error string", stderrors.New("write /dev/hidraw3: input/output error"), ErrDisconnected},
		{"unknown", stderrors.New("short write"), ErrWriteFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyWrite(tt.err))
		})
	}
}
