package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNotEnabled is returned by handles that need Enable before Request, On or Off.
	ErrNotEnabled = errors.New("wallet not enabled")

	ErrEventsUnsupported = errors.New("container does not support events")
)

// ConnectionError means Enable returned but the wallet does not report itself connected.
type ConnectionError struct {
	WalletID string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to wallet %s", e.WalletID)
}

func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}
