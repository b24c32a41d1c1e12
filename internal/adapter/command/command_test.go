package command

import (
	"testing"

	"github.com/kballard/go-shellquote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandString(t *testing.T) {
	cmd := Command{
		Name:       "innobackupex",
		Args:       []string{"--incremental", "/data/backup", "--password=s3cr3t pass", "--incremental-basedir=/data/backup/2013-11-21_22-50-22"},
		SecretArgs: []int{2},
	}

	assert.Equal(t,
		"innobackupex --incremental /data/backup --password=REDACTED --incremental-basedir=/data/backup/2013-11-21_22-50-22",
		cmd.String())
	assert.Equal(t, "--password=s3cr3t pass", cmd.Args[2], "rendering must not modify the argv")
}

func TestCommandStringQuotesMetacharacters(t *testing.T) {
	cmd := Command{Name: "aws", Args: []string{"s3", "cp", "/data/my backup;rm -rf /", "s3://bucket/$(id)"}}

	words, err := shellquote.Split(cmd.String())
	require.NoError(t, err)
	assert.Equal(t, cmd.Argv(), words)
}

func TestCommandArgv(t *testing.T) {
	cmd := Command{Name: "innobackupex", Args: []string{"--apply-log", "/data/backup/x"}}
	assert.Equal(t, []string{"innobackupex", "--apply-log", "/data/backup/x"}, cmd.Argv())
}

func TestCommandStringRedactsOnlySecretArgs(t *testing.T) {
	tests := []struct {
		name     string
		cmd      Command
		expected string
	}{
		{
			name:     "bare secret",
			cmd:      Command{Name: "tool", Args: []string{"backup", "backup"}, SecretArgs: []int{1}},
			expected: "tool backup REDACTED",
		},
		{
			name:     "secret containing equals",
			cmd:      Command{Name: "tool", Args: []string{"--password=a=b"}, SecretArgs: []int{0}},
			expected: "tool --password=REDACTED",
		},
		{
			name:     "out of range index",
			cmd:      Command{Name: "tool", Args: []string{"x"}, SecretArgs: []int{3, -1}},
			expected: "tool x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cmd.String())
		})
	}
}
