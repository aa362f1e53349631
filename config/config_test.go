package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassamadnan/mailsort/triage"
)

func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := Flags()
	require.NoError(t, fs.Parse(args))
	return Load(fs)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := parse(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ProviderGmail, cfg.Provider)
	assert.Equal(t, "INBOX", cfg.Label)
	assert.Equal(t, "mailsort.log", cfg.Log.File)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "credentials.json", cfg.Gmail.CredentialsFile)
	assert.Equal(t, "me", cfg.Gmail.User)
	assert.Equal(t, 40.0, cfg.Gmail.RequestsPerSecond)
	assert.Equal(t, 993, cfg.IMAP.Port)
	assert.True(t, cfg.IMAP.TLS)
	assert.False(t, cfg.Commit.Enabled)
	assert.Equal(t, "FollowUp", cfg.Commit.Targets["follow_up"])
	assert.Empty(t, cfg.Cache.Path)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
provider: imap
label: Triage
imap:
  host: imap.example.com
  username: amy
  page_size: 25
cache:
  path: /tmp/mailsort.db
commit:
  enabled: true
  targets:
    archive: Old
`)

	cfg, err := parse(t, "--config", path)
	require.NoError(t, err)

	assert.Equal(t, ProviderIMAP, cfg.Provider)
	assert.Equal(t, "Triage", cfg.Label)
	assert.Equal(t, "imap.example.com:993", cfg.IMAP.Addr())
	assert.Equal(t, 25, cfg.IMAP.PageSize)
	assert.Equal(t, "/tmp/mailsort.db", cfg.Cache.Path)
	assert.True(t, cfg.Commit.Enabled)
	assert.Equal(t, "Old", cfg.Commit.Targets["archive"])
	assert.Equal(t, "ReadThrough", cfg.Commit.Targets["read_through"])

	dest, err := cfg.Commit.Destinations()
	require.NoError(t, err)
	assert.Equal(t, map[triage.Disposition]string{
		triage.FollowUp:    "FollowUp",
		triage.ReadThrough: "ReadThrough",
		triage.Archive:     "Old",
	}, dest)
}

func TestCommitConfig_Destinations(t *testing.T) {
	dest, err := CommitConfig{Targets: map[string]string{"FollowUp": "Later", "archive": ""}}.Destinations()
	require.NoError(t, err)
	assert.Equal(t, map[triage.Disposition]string{triage.FollowUp: "Later", triage.Archive: ""}, dest)

	_, err = CommitConfig{Targets: map[string]string{"someday": "X"}}.Destinations()
	assert.Error(t, err)

	_, err = CommitConfig{Targets: map[string]string{"inbox": "X"}}.Destinations()
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "provider: gmail\nlabel: INBOX\n")
	t.Setenv("MAILSORT_LABEL", "Later")
	t.Setenv("MAILSORT_LOG_LEVEL", "warn")

	cfg, err := parse(t, "--config", path)
	require.NoError(t, err)

	assert.Equal(t, "Later", cfg.Label)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("MAILSORT_LABEL", "Later")

	cfg, err := parse(t,
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"--label", "Now",
		"--mbox", "/tmp/inbox.mbox",
		"--debug",
		"--commit",
	)
	require.NoError(t, err)

	assert.Equal(t, "Now", cfg.Label)
	assert.Equal(t, ProviderMbox, cfg.Provider)
	assert.Equal(t, "/tmp/inbox.mbox", cfg.Mbox.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Commit.Enabled)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "provider: [gmail\n")

	_, err := parse(t, "--config", path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		cfg     Config
		wantErr bool
	}{
		"gmail ok": {
			cfg: Config{Provider: ProviderGmail, Label: "INBOX", Gmail: GmailConfig{CredentialsFile: "c.json", RequestsPerSecond: 1}},
		},
		"gmail no rate": {
			cfg:     Config{Provider: ProviderGmail, Label: "INBOX", Gmail: GmailConfig{CredentialsFile: "c.json"}},
			wantErr: true,
		},
		"imap missing host": {
			cfg:     Config{Provider: ProviderIMAP, Label: "INBOX", IMAP: IMAPConfig{Username: "amy", PageSize: 10}},
			wantErr: true,
		},
		"mbox ok": {
			cfg: Config{Provider: ProviderMbox, Label: "INBOX", Mbox: MboxConfig{Path: "x.mbox", PageSize: 10}},
		},
		"mbox missing path": {
			cfg:     Config{Provider: ProviderMbox, Label: "INBOX", Mbox: MboxConfig{PageSize: 10}},
			wantErr: true,
		},
		"empty label": {
			cfg:     Config{Provider: ProviderMbox, Mbox: MboxConfig{Path: "x.mbox", PageSize: 10}},
			wantErr: true,
		},
		"unknown commit target": {
			cfg: Config{
				Provider: ProviderMbox, Label: "INBOX", Mbox: MboxConfig{Path: "x.mbox", PageSize: 10},
				Commit: CommitConfig{Targets: map[string]string{"trash": "Trash"}},
			},
			wantErr: true,
		},
		"unknown provider": {
			cfg:     Config{Provider: "pop3", Label: "INBOX"},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
