package ledger

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	apperrors "budgetify/internal/errors"
)

// IsStoreUnavailable reports whether err means the backing store could not be
// reached. Such errors abort a posting run instead of failing one definition.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, apperrors.ErrStoreUnavailable)
}

// storeError converts a raw database error into an AppError, separating
// connectivity problems from everything else.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if isConnectivityError(err) {
		return apperrors.Wrap(apperrors.ErrStoreUnavailable, err)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

func isConnectivityError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// database/sql does not export its closed-pool error.
	return strings.Contains(err.Error(), "database is closed")
}
