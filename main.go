package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/bassamadnan/mailsort/cache"
	"github.com/bassamadnan/mailsort/config"
	"github.com/bassamadnan/mailsort/credential"
	"github.com/bassamadnan/mailsort/gmail"
	"github.com/bassamadnan/mailsort/imapbox"
	"github.com/bassamadnan/mailsort/inbox"
	"github.com/bassamadnan/mailsort/mboxfile"
	"github.com/bassamadnan/mailsort/triage"
	"github.com/bassamadnan/mailsort/tui"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	fs := config.Flags()
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mailsort: %v\n", err)
		return 1
	}

	logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0660)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mailsort: failed to open log file: %v\n", err)
		return 1
	}
	defer logFile.Close()

	logger := logrus.New()
	logger.SetOutput(logFile)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	log := logger.WithField("session", uuid.NewString())
	log.WithFields(logrus.Fields{"provider": cfg.Provider, "label": cfg.Label}).Info("Application starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			log.Info("Shutdown signal received, cancelling context...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("Exiting")
		fmt.Fprintf(os.Stderr, "mailsort: %v\n", err)
		return 1
	}
	log.Info("Exiting")
	return 0
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	src, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer src.close()

	provider := src.provider
	if cfg.Cache.Path != "" {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer store.Close()

		cached, err := store.Count(ctx, src.namespace)
		if err != nil {
			return fmt.Errorf("reading cache: %w", err)
		}
		log.WithFields(logrus.Fields{"namespace": src.namespace, "messages": cached}).Info("Cache opened")
		provider = cache.Wrap(provider, store, src.namespace, log)
	}

	loader := inbox.NewLoader(provider, cfg.Label, log)
	model := tui.NewModel(ctx, loader, src.committer, log)

	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}

	if m, ok := final.(tui.Model); ok {
		logSummary(log, m.Records())
		if m.Exhausted() {
			fmt.Println("No emails")
		}
	}
	return nil
}

// source is an opened mailbox: where messages come from, where decisions go
// and the cache namespace its message ids are unique in.
type source struct {
	provider  inbox.Provider
	committer inbox.Committer
	namespace string
	close     func()
}

// openSource builds the configured provider and, when commit is enabled, its
// committer.
func openSource(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*source, error) {
	src := &source{close: func() {}}

	var destinations map[triage.Disposition]string
	if cfg.Commit.Enabled {
		var err error
		if destinations, err = cfg.Commit.Destinations(); err != nil {
			return nil, err
		}
	}

	switch cfg.Provider {
	case config.ProviderGmail:
		creds, err := credential.Open()
		if err != nil {
			return nil, err
		}
		client, err := gmail.NewClient(ctx, cfg.Gmail, creds, cfg.Commit.Enabled, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gmail client: %w", err)
		}
		src.provider = client
		if cfg.Commit.Enabled {
			src.committer = gmail.NewCommitter(client, cfg.Label, destinations)
		}
		src.namespace = cacheNamespace(cfg, 0)
		return src, nil

	case config.ProviderIMAP:
		creds, err := credential.Open()
		if err != nil {
			return nil, err
		}
		key := "imap:" + cfg.IMAP.Username
		password, err := creds.GetOrPrompt(key, func() (string, error) {
			return credential.Prompt(
				"IMAP password",
				fmt.Sprintf("Password for %s on %s", cfg.IMAP.Username, cfg.IMAP.Host),
				true,
			)
		})
		if err != nil {
			return nil, err
		}
		client, err := imapbox.Dial(cfg.IMAP, password, log)
		if errors.Is(err, imapbox.ErrAuthFailed) {
			// Forget the rejected password so the next run asks again.
			if delErr := creds.Delete(key); delErr != nil {
				log.WithError(delErr).Warn("Removing stored IMAP password")
			}
		}
		if err != nil {
			return nil, err
		}
		src.close = func() {
			if err := client.Close(); err != nil {
				log.WithError(err).Warn("Closing IMAP connection")
			}
		}

		uidValidity, err := client.UIDValidity(cfg.Label)
		if err != nil {
			src.close()
			return nil, err
		}
		src.provider = client
		if cfg.Commit.Enabled {
			src.committer = imapbox.NewCommitter(client, destinations)
		}
		src.namespace = cacheNamespace(cfg, uidValidity)
		return src, nil

	case config.ProviderMbox:
		file, err := mboxfile.Open(cfg.Mbox.Path, cfg.Mbox.PageSize, log)
		if err != nil {
			return nil, err
		}
		if cfg.Commit.Enabled {
			log.Warn("mbox files are read-only, commit only filters the working set")
		}
		src.provider = file
		src.namespace = cacheNamespace(cfg, 0)
		return src, nil
	}

	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

// cacheNamespace keeps accounts apart when they share one cache file. IMAP
// UIDs are only unique within one mailbox and one UIDVALIDITY, so both are
// part of the namespace.
func cacheNamespace(cfg *config.Config, uidValidity uint32) string {
	switch cfg.Provider {
	case config.ProviderGmail:
		return "gmail:" + cfg.Gmail.User
	case config.ProviderIMAP:
		return fmt.Sprintf("imap:%s@%s/%s;uidvalidity=%d", cfg.IMAP.Username, cfg.IMAP.Host, cfg.Label, uidValidity)
	case config.ProviderMbox:
		if abs, err := filepath.Abs(cfg.Mbox.Path); err == nil {
			return "mbox:" + abs
		}
		return "mbox:" + cfg.Mbox.Path
	}
	return cfg.Provider
}

func logSummary(log *logrus.Entry, records []triage.Email) {
	counts := make(map[triage.Disposition]int)
	for _, e := range records {
		counts[e.Status]++
	}
	fields := logrus.Fields{"emails": len(records)}
	for _, d := range triage.Dispositions() {
		fields[d.String()] = counts[d]
	}
	log.WithFields(fields).Info("Session finished")
}
