package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/martijn/innobackup-s3/internal/core/domain"
)

type Config struct {
	// External tools, split with shell-word rules
	BackupTool   string `mapstructure:"backup_tool"`
	TransferTool string `mapstructure:"transfer_tool"`

	// Ordering used for local directories and bucket listings.
	// Empty means byte order.
	Collation string `mapstructure:"collation"`

	// Optional run journal. Empty disables it.
	JournalPath string `mapstructure:"journal_path"`

	S3 S3Config `mapstructure:"s3"`

	// Static paths
	ConfigPath string
}

type S3Config struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	PathStyle       bool   `mapstructure:"path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

const (
	DefaultConfigPath   = "/etc/innobackup-s3/config.yml"
	DefaultBackupTool   = "innobackupex"
	DefaultTransferTool = "aws s3"
	EnvPrefix           = "INNOBACKUP_S3"
)

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"journal":       "journal_path",
	"backup-tool":   "backup_tool",
	"transfer-tool": "transfer_tool",
	"collation":     "collation",
}

// Load reads the YAML file at configPath, applies environment overrides and
// then any flags in flags that were set explicitly. A missing file is only an
// error when the path was given explicitly.
func Load(fs afero.Fs, configPath string, flags *pflag.FlagSet) (*Config, error) {
	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigPath
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("backup_tool", DefaultBackupTool)
	v.SetDefault("transfer_tool", DefaultTransferTool)
	v.SetDefault("collation", "")
	v.SetDefault("journal_path", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.path_style", false)
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")

	// Allow environment variable overrides, e.g. INNOBACKUP_S3_S3_REGION
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, errors.Wrapf(err, "failed to bind flag %s", name)
			}
		}
	}

	exists, err := afero.Exists(fs, configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat config file %s", configPath)
	}
	if exists {
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
		}
	} else if explicit {
		return nil, errors.Newf("config file does not exist: %s", configPath)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	cfg.ConfigPath = configPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.BackupTool) == "" {
		return errors.New("backup_tool must not be empty")
	}

	if strings.TrimSpace(c.TransferTool) == "" {
		return errors.New("transfer_tool must not be empty")
	}

	if _, err := c.Comparator(); err != nil {
		return errors.Newf("invalid collation %q", c.Collation)
	}

	if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
		return errors.New("both s3.access_key_id and s3.secret_access_key must be provided")
	}

	return nil
}

// Comparator resolves the configured collation. It returns nil when no
// collation is configured so each selector keeps its own default ordering.
func (c *Config) Comparator() (domain.Comparator, error) {
	if strings.TrimSpace(c.Collation) == "" {
		return nil, nil
	}
	return domain.ComparatorByName(c.Collation)
}
