package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// wrapErr wraps a repository error, turning a lost database connection into a
// shutdown error so the API error handler can signal a graceful restart.
func wrapErr(err error, msg string) error {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return core.NewShutdownError(msg + ": " + err.Error())
	}
	return errors.Wrap(err, msg)
}
