package command

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/martijn/innobackup-s3/internal/core/domain"
)

const (
	DefaultBackupTool   = "innobackupex"
	DefaultTransferTool = "aws s3"
)

// Builder produces the backup tool and transfer tool invocations. Every value
// that ends up in an argument is validated first.
type Builder struct {
	backupTool   []string
	transferTool []string
}

// NewBuilder parses the configured tool command lines. Each may carry fixed
// leading arguments, e.g. "sudo innobackupex" or "aws --profile backup s3".
func NewBuilder(backupTool, transferTool string) (*Builder, error) {
	if backupTool == "" {
		backupTool = DefaultBackupTool
	}
	if transferTool == "" {
		transferTool = DefaultTransferTool
	}

	backupArgv, err := splitTool("backup_tool", backupTool)
	if err != nil {
		return nil, err
	}
	transferArgv, err := splitTool("transfer_tool", transferTool)
	if err != nil {
		return nil, err
	}

	return &Builder{backupTool: backupArgv, transferTool: transferArgv}, nil
}

func splitTool(kind, line string) ([]string, error) {
	argv, err := shellquote.Split(line)
	if err != nil {
		return nil, domain.Wrapf(err, domain.ErrArgument, "invalid %s %q", kind, line)
	}
	if len(argv) == 0 {
		return nil, domain.Errorf(domain.ErrArgument, "%s must not be empty", kind)
	}
	return argv, nil
}

func (b *Builder) backup(args ...string) Command {
	argv := append(append([]string{}, b.backupTool[1:]...), args...)
	return Command{Name: b.backupTool[0], Args: argv}
}

func (b *Builder) transfer(args ...string) Command {
	argv := append(append([]string{}, b.transferTool[1:]...), args...)
	return Command{Name: b.transferTool[0], Args: argv}
}

// IncrementalBackup takes a backup of the changes since baseDir into a new
// timestamped directory below dir.
func (b *Builder) IncrementalBackup(dir, password, baseDir string) (Command, error) {
	if err := ValidatePath("backup directory", dir); err != nil {
		return Command{}, err
	}
	if err := ValidatePath("incremental base directory", baseDir); err != nil {
		return Command{}, err
	}
	if err := ValidateSecret("password", password); err != nil {
		return Command{}, err
	}

	cmd := b.backup(
		"--incremental", dir,
		fmt.Sprintf("--password=%s", password),
		fmt.Sprintf("--incremental-basedir=%s", baseDir),
	)
	cmd.SecretArgs = []int{len(cmd.Args) - 2}
	return cmd, nil
}

// FullBackup takes a full backup into a new timestamped directory below dir.
func (b *Builder) FullBackup(dir string) (Command, error) {
	if err := ValidatePath("backup directory", dir); err != nil {
		return Command{}, err
	}
	return b.backup(dir), nil
}

// ApplyLog prepares a freshly taken full backup.
func (b *Builder) ApplyLog(backupDir string) (Command, error) {
	if err := ValidatePath("backup directory", backupDir); err != nil {
		return Command{}, err
	}
	return b.backup("--apply-log", backupDir), nil
}

// CopyBack copies a prepared backup back into the database data directory.
func (b *Builder) CopyBack(dir string) (Command, error) {
	if err := ValidatePath("restore directory", dir); err != nil {
		return Command{}, err
	}
	return b.backup("--copy-back", dir), nil
}

// Upload recursively copies a local backup directory to bucket/name.
func (b *Builder) Upload(localDir, bucket, name string) (Command, error) {
	if err := ValidatePath("backup directory", localDir); err != nil {
		return Command{}, err
	}
	remote, err := RemoteURI(bucket, name)
	if err != nil {
		return Command{}, err
	}
	return b.transfer("cp", localDir, remote, "--recursive"), nil
}

// Download recursively copies bucket/name into dir/<name>.
func (b *Builder) Download(bucket string, name domain.BackupName, dir string) (Command, error) {
	if err := ValidatePath("restore directory", dir); err != nil {
		return Command{}, err
	}
	remote, err := RemoteURI(bucket, name.String())
	if err != nil {
		return Command{}, err
	}
	return b.transfer("cp", remote, filepath.Join(dir, name.Base()), "--recursive"), nil
}

// RemoteURI returns the s3:// location of name inside bucket. bucket may
// carry a key prefix.
func RemoteURI(bucket, name string) (string, error) {
	if err := ValidateBucket(bucket); err != nil {
		return "", err
	}
	if err := ValidateValue("backup name", name); err != nil {
		return "", err
	}
	if strings.HasPrefix(name, "/") || slices.Contains(strings.Split(name, "/"), "..") {
		return "", domain.Errorf(domain.ErrArgument, "invalid backup name %q", name)
	}
	return fmt.Sprintf("s3://%s/%s", strings.TrimSuffix(bucket, "/"), name), nil
}
