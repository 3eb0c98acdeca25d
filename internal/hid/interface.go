package hid

import "context"

// Descriptor identifies an enumerated HID device. It is transient: only
// ever used to open a Session, never held across reconnects.
type Descriptor struct {
	Path      string
	VendorID  uint16
	ProductID uint16
	Product   string
}

// Locator discovers candidate devices. Find is pure discovery: it never
// opens the device and is safe to call indefinitely.
type Locator interface {
	Find(vendorID, productID uint16) (Descriptor, error)
}

// Opener acquires exclusive write access to a discovered device. The
// returned session is owned by exactly one caller at a time.
type Opener interface {
	Open(desc Descriptor) (Session, error)
}

// Session wraps a single open OS handle to the device's output-report
// channel. A session is invalid after the first failed write; the owner
// must close it before opening a replacement.
type Session interface {
	// WriteReport sends one output report, bounded by the backend's
	// write timeout so an unresponsive device cannot stall the loop.
	WriteReport(ctx context.Context, report []byte) error

	// Close releases the OS handle. Safe to call more than once.
	Close() error
}
