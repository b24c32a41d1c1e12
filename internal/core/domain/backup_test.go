package domain

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackupType(t *testing.T) {
	tests := []struct {
		input    string
		expected BackupType
	}{
		{"", BackupTypeIncremental},
		{"incremental", BackupTypeIncremental},
		{"full", BackupTypeFull},
		{"FULL", BackupTypeFull},
	}
	for _, tt := range tests {
		got, err := ParseBackupType(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, got)
	}

	_, err := ParseBackupType("differential")
	require.Error(t, err)
	assert.True(t, IsArgumentError(err))
}

func TestBackupName(t *testing.T) {
	assert.True(t, BackupName("2013-10-26_16-09-39-FULL/").IsFull())
	assert.True(t, BackupName("2013-10-26_16-09-39-full").IsFull())
	assert.False(t, BackupName("2013-11-06_21-36-41/").IsFull())
	assert.Equal(t, "2013-10-26_16-09-39-FULL", BackupName("2013-10-26_16-09-39-FULL/").Base())
	assert.Equal(t, "2013-11-06_21-36-41", BackupName("2013-11-06_21-36-41").Base())
}

func TestUploadName(t *testing.T) {
	assert.Equal(t, "2013-11-21_D-full", UploadName("2013-11-21_D", BackupTypeFull))
	assert.Equal(t, "2013-11-21_D", UploadName("2013-11-21_D", BackupTypeIncremental))
}

func TestErrorKinds(t *testing.T) {
	err := Wrapf(errors.New("permission denied"), ErrDirectoryAccess, "unable to open %s", "/data")
	assert.True(t, errors.Is(err, ErrDirectoryAccess))
	assert.False(t, errors.Is(err, ErrArgument))
	assert.Contains(t, err.Error(), "unable to open /data")
	assert.Contains(t, err.Error(), "permission denied")

	assert.Nil(t, Wrapf(nil, ErrDirectoryAccess, "unused"))

	var exitErr *NonZeroExitError
	wrapped := errors.Wrap(&NonZeroExitError{Command: "aws s3 cp", ExitCode: 1}, "transfer")
	require.True(t, errors.As(wrapped, &exitErr))
	assert.Equal(t, 1, exitErr.ExitCode)
}
