package hid

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/deepcoolctl/internal/errors"
	hidapi "github.com/sstallion/go-hid"
)

// session is the hidapi-backed Session. The driver loop is its only
// owner; the mutex just guards Close against a timed-out write still in
// flight.
type session struct {
	dev     *hidapi.Device
	desc    Descriptor
	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

func (s *session) WriteReport(ctx context.Context, report []byte) error {
	errFactory := errors.New()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errFactory.New(ErrSessionClosed)
	}
	dev := s.dev
	s.mu.Unlock()

	// hidraw writes normally complete immediately, but a wedged device
	// can block forever. Run the write aside and bound the wait; Close
	// unblocks a stuck writer by invalidating the handle.
	done := make(chan error, 1)
	go func() {
		_, err := dev.Write(report)
		done <- err
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return errFactory.Wrap(classifyWrite(err), err)
		}
		return nil
	case <-timer.C:
		return errFactory.WithData(ErrWriteTimeout, s.timeout.String())
	case <-ctx.Done():
		return errFactory.Wrap(ErrWriteFailed, ctx.Err())
	}
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.dev.Close(); err != nil {
		return errors.New().Wrap(ErrShutdownFailed, err)
	}

	return nil
}
