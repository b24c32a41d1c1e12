package command

import (
	"regexp"
	"strings"

	"github.com/martijn/innobackup-s3/internal/core/domain"
)

// bucketPattern also admits legacy us-east-1 names with upper case letters
// and underscores.
var bucketPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]{1,253}[A-Za-z0-9]$`)

// ValidateValue rejects values that cannot be passed safely as a single
// argument: empty strings and strings carrying NUL or line breaks.
func ValidateValue(kind, value string) error {
	if value == "" {
		return domain.Errorf(domain.ErrArgument, "%s must not be empty", kind)
	}
	return validateChars(kind, value)
}

// ValidatePath additionally rejects paths that would be parsed as an option by
// the invoked program.
func ValidatePath(kind, path string) error {
	if err := ValidateValue(kind, path); err != nil {
		return err
	}
	if strings.HasPrefix(path, "-") {
		return domain.Errorf(domain.ErrArgument, "%s %q must not start with '-'", kind, path)
	}
	return nil
}

// ValidateSecret accepts empty secrets but still rejects control characters.
func ValidateSecret(kind, secret string) error {
	return validateChars(kind, secret)
}

// ValidateBucket checks an S3 bucket name with an optional key prefix, as in
// "backups" or "backups/mysql/prod".
func ValidateBucket(bucket string) error {
	name, prefix, hasPrefix := strings.Cut(bucket, "/")
	if !bucketPattern.MatchString(name) || strings.Contains(name, "..") {
		return domain.Errorf(domain.ErrArgument, "invalid bucket name %q", bucket)
	}
	if !hasPrefix {
		return nil
	}

	prefix = strings.TrimSuffix(prefix, "/")
	if err := ValidateValue("bucket prefix", prefix); err != nil {
		return err
	}
	for _, segment := range strings.Split(prefix, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return domain.Errorf(domain.ErrArgument, "invalid bucket prefix in %q", bucket)
		}
	}
	return nil
}

func validateChars(kind, value string) error {
	if strings.ContainsAny(value, "\x00\r\n") {
		return domain.Errorf(domain.ErrArgument, "%s contains a NUL byte or line break", kind)
	}
	return nil
}
