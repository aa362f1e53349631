package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bassamadnan/mailsort/triage"
)

const (
	ProviderGmail = "gmail"
	ProviderIMAP  = "imap"
	ProviderMbox  = "mbox"
)

// LogConfig controls the log file; the terminal belongs to the UI.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// GmailConfig holds the Gmail API settings.
type GmailConfig struct {
	CredentialsFile   string  `mapstructure:"credentials_file"`
	User              string  `mapstructure:"user"`
	TokenKey          string  `mapstructure:"token_key"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// IMAPConfig holds the IMAP server settings. The password lives in the
// system keyring.
type IMAPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	TLS      bool   `mapstructure:"tls"`
	PageSize int    `mapstructure:"page_size"`
}

func (c IMAPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MboxConfig struct {
	Path     string `mapstructure:"path"`
	PageSize int    `mapstructure:"page_size"`
}

// CacheConfig enables the local message cache when Path is set.
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// CommitConfig maps disposition names (follow_up, read_through, archive) to
// provider labels or mailboxes. An empty target leaves the message in place.
type CommitConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Targets map[string]string `mapstructure:"targets"`
}

// Destinations resolves Targets by disposition. Inbox cannot have a target:
// it always means the reviewed label or mailbox.
func (c CommitConfig) Destinations() (map[triage.Disposition]string, error) {
	out := make(map[triage.Disposition]string, len(c.Targets))
	for name, target := range c.Targets {
		d, err := triage.ParseDisposition(name)
		if err != nil {
			return nil, fmt.Errorf("commit.targets: %w", err)
		}
		if d == triage.Inbox {
			return nil, errors.New("commit.targets: inbox cannot have a target")
		}
		out[d] = target
	}
	return out, nil
}

// Config is the top-level application configuration.
type Config struct {
	Provider string       `mapstructure:"provider"`
	Label    string       `mapstructure:"label"`
	Log      LogConfig    `mapstructure:"log"`
	Gmail    GmailConfig  `mapstructure:"gmail"`
	IMAP     IMAPConfig   `mapstructure:"imap"`
	Mbox     MboxConfig   `mapstructure:"mbox"`
	Cache    CacheConfig  `mapstructure:"cache"`
	Commit   CommitConfig `mapstructure:"commit"`
}

// DefaultPath returns ~/.config/mailsort/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailsort", "config.yaml")
}

// Flags returns the command line flags understood by Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("mailsort", pflag.ContinueOnError)
	fs.String("config", DefaultPath(), "path to the YAML configuration file")
	fs.String("provider", "", "mail provider: gmail, imap or mbox")
	fs.String("label", "", "label or mailbox to review")
	fs.String("mbox", "", "mbox file to review (implies --provider=mbox)")
	fs.String("log-file", "", "log file path")
	fs.Bool("debug", false, "enable debug logging")
	fs.Bool("commit", false, "write dispositions back to the provider on commit")
	return fs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGmail)
	v.SetDefault("label", "INBOX")
	v.SetDefault("log.file", "mailsort.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("gmail.credentials_file", "credentials.json")
	v.SetDefault("gmail.user", "me")
	v.SetDefault("gmail.token_key", "gmail-token")
	v.SetDefault("gmail.requests_per_second", 40.0)
	v.SetDefault("imap.host", "")
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.port", 993)
	v.SetDefault("imap.tls", true)
	v.SetDefault("imap.page_size", 100)
	v.SetDefault("mbox.path", "")
	v.SetDefault("mbox.page_size", 100)
	v.SetDefault("cache.path", "")
	v.SetDefault("commit.enabled", false)
	v.SetDefault("commit.targets.follow_up", "FollowUp")
	v.SetDefault("commit.targets.read_through", "ReadThrough")
	v.SetDefault("commit.targets.archive", "Archive")
}

// Load reads the configuration file named by the --config flag, applies
// MAILSORT_* environment variables and then explicitly set flags. A missing
// file yields the defaults.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("mailsort")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := DefaultPath()
	if fs != nil {
		if p, err := fs.GetString("config"); err == nil && p != "" {
			path = p
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if fs != nil {
		bindFlags(v, fs)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	bind := func(key, flag string) {
		if f := fs.Lookup(flag); f != nil && f.Changed {
			_ = v.BindPFlag(key, f)
		}
	}
	bind("provider", "provider")
	bind("label", "label")
	bind("mbox.path", "mbox")
	bind("log.file", "log-file")
	bind("commit.enabled", "commit")

	if f := fs.Lookup("mbox"); f != nil && f.Changed && !fs.Changed("provider") {
		v.Set("provider", ProviderMbox)
	}
	if debug, _ := fs.GetBool("debug"); debug {
		v.Set("log.level", "debug")
	}
}

// Validate checks that the selected provider has what it needs.
func (c *Config) Validate() error {
	if c.Label == "" {
		return errors.New("label must not be empty")
	}
	if _, err := c.Commit.Destinations(); err != nil {
		return err
	}
	switch c.Provider {
	case ProviderGmail:
		if c.Gmail.CredentialsFile == "" {
			return errors.New("gmail.credentials_file is required")
		}
		if c.Gmail.RequestsPerSecond <= 0 {
			return errors.New("gmail.requests_per_second must be positive")
		}
	case ProviderIMAP:
		if c.IMAP.Host == "" || c.IMAP.Username == "" {
			return errors.New("imap.host and imap.username are required")
		}
		if c.IMAP.PageSize <= 0 {
			return errors.New("imap.page_size must be positive")
		}
	case ProviderMbox:
		if c.Mbox.Path == "" {
			return errors.New("mbox.path is required")
		}
		if c.Mbox.PageSize <= 0 {
			return errors.New("mbox.page_size must be positive")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	return nil
}
