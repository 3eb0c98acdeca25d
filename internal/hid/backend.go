// Package hid provides device discovery and exclusively-owned write
// sessions over the kernel's raw HID interface, backed by hidapi.
package hid

import (
	"time"

	"codeberg.org/mutker/deepcoolctl/internal/errors"
	"codeberg.org/mutker/deepcoolctl/internal/logger"
	hidapi "github.com/sstallion/go-hid"
)

const defaultWriteTimeout = time.Second

// Backend owns the hidapi library lifetime and implements Locator and
// Opener against real hardware.
type Backend struct {
	writeTimeout time.Duration
}

// NewBackend initializes the hidapi library. Callers must Close the
// backend on shutdown to release it.
func NewBackend() (*Backend, error) {
	if err := hidapi.Init(); err != nil {
		return nil, errors.New().Wrap(ErrInitFailed, err)
	}

	return &Backend{writeTimeout: defaultWriteTimeout}, nil
}

func (b *Backend) Close() error {
	if err := hidapi.Exit(); err != nil {
		return errors.New().Wrap(ErrShutdownFailed, err)
	}

	return nil
}

// Find enumerates HID devices and returns the first exact vendor/product
// match. Discovery only; the device is not opened.
func (b *Backend) Find(vendorID, productID uint16) (Descriptor, error) {
	errFactory := errors.New()

	var found *Descriptor
	err := hidapi.Enumerate(vendorID, productID, func(info *hidapi.DeviceInfo) error {
		if found == nil {
			found = &Descriptor{
				Path:      info.Path,
				VendorID:  info.VendorID,
				ProductID: info.ProductID,
				Product:   info.ProductStr,
			}
		}
		return nil
	})

	if found == nil {
		// hidapi reports an empty enumeration as an error; fold it into
		// the not-found case so the caller's backoff path handles both.
		if err != nil && !isNoDeviceError(err) {
			return Descriptor{}, errFactory.Wrap(ErrEnumerateFailed, err)
		}

		return Descriptor{}, errFactory.WithData(ErrDeviceNotFound, struct {
			VendorID  uint16
			ProductID uint16
		}{
			VendorID:  vendorID,
			ProductID: productID,
		})
	}

	logger.Debug().
		Str("path", found.Path).
		Str("product", found.Product).
		Msg("Located display device")

	return *found, nil
}

// Open acquires the device node for exclusive output-report writes.
func (b *Backend) Open(desc Descriptor) (Session, error) {
	dev, err := hidapi.OpenPath(desc.Path)
	if err != nil {
		return nil, errors.New().Wrap(classifyOpen(err), err)
	}

	logger.Info().
		Str("path", desc.Path).
		Str("product", desc.Product).
		Msg("Opened display device")

	return &session{
		dev:     dev,
		desc:    desc,
		timeout: b.writeTimeout,
	}, nil
}
