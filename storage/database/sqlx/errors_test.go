package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core"
)

func Test_wrapErr(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantShutdown bool
	}{
		{name: "Bad connection triggers shutdown", err: driver.ErrBadConn, wantShutdown: true},
		{name: "Closed connection triggers shutdown", err: sql.ErrConnDone, wantShutdown: true},
		{name: "Query error is wrapped", err: errors.New("syntax error"), wantShutdown: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapErr(tt.err, "querying users")
			assert.Equal(t, tt.wantShutdown, core.IsShutdown(err))
			assert.Contains(t, err.Error(), "querying users")

			// further wrapping up the call stack must not mask it
			assert.Equal(t, tt.wantShutdown, core.IsShutdown(errors.Wrap(err, "finding user by ID")))
		})
	}
}
