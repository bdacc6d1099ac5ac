package storage

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
)

// WrapQueryError wraps a backend error for op. Connectivity failures are
// marked with ErrUnreachable so callers can tell them apart from empty results.
func WrapQueryError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsConnectivityError(err) {
		return fmt.Errorf("%w: %s: %v", ErrUnreachable, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// IsConnectivityError reports whether err means the backend could not be reached.
func IsConnectivityError(err error) bool {
	if errors.Is(err, ErrUnreachable) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
