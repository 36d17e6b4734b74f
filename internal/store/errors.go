package store

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jobrisk/jobrisk/internal/model"
)

// isConnectionError reports failures of the store itself rather than of one row.
func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is closed") || strings.Contains(msg, "closed pool")
}

func duplicate(err error) error {
	return fmt.Errorf("%w: %w", model.ErrDuplicate, err)
}

func connectionLost(err error) error {
	return fmt.Errorf("%w: %w", model.ErrConnectionLost, err)
}
