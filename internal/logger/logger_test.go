package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLevels(t *testing.T) {
	var quiet, verbose bytes.Buffer

	quietLog := New(&quiet, false)
	quietLog.Debug().Msg("selection details")
	quietLog.Info().Str("exec", "innobackupex /var/backups").Msg("executing command")

	verboseLog := New(&verbose, true)
	verboseLog.Debug().Msg("selection details")

	assert.NotContains(t, quiet.String(), "selection details")
	assert.Contains(t, quiet.String(), "executing command")
	assert.Contains(t, quiet.String(), "innobackupex /var/backups")
	assert.Contains(t, verbose.String(), "selection details")
}
