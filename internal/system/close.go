package system

import (
	"context"
	"errors"
)

// Close flushes traces and releases the backend client and local store.
func (s *Storefront) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs []error

	if s.Client != nil {
		s.Client.Close()
	}

	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, err)
		}
		s.Store = nil
	}

	if s.shutdownTracing != nil {
		if err := s.shutdownTracing(ctx); err != nil {
			errs = append(errs, err)
		}
		s.shutdownTracing = nil
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
