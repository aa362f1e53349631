// Package imapbox reads messages from an IMAP mailbox.
package imapbox

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/sirupsen/logrus"

	"github.com/bassamadnan/mailsort/config"
	"github.com/bassamadnan/mailsort/inbox"
)

// ErrAuthFailed is returned by Dial when the server rejects the credentials.
var ErrAuthFailed = errors.New("authentication failed")

// Client holds one authenticated IMAP session. Labels map to mailboxes and
// message ids are UIDs in the listed mailbox. Not safe for concurrent use.
type Client struct {
	client   *imapclient.Client
	pageSize int
	log      *logrus.Entry

	// selected is the mailbox the UID snapshot was taken from; current is
	// the mailbox the session has open, which differs while committing.
	selected    string
	current     string
	uidValidity uint32
	uids        []string
}

// Dial connects and logs in.
func Dial(cfg config.IMAPConfig, password string, log *logrus.Entry) (*Client, error) {
	addr := cfg.Addr()

	var (
		client *imapclient.Client
		err    error
	)
	if cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	c := newClient(client, addr, cfg.PageSize, log)
	if err := c.login(cfg.Username, password); err != nil {
		_ = client.Close()
		return nil, err
	}
	return c, nil
}

func newClient(client *imapclient.Client, addr string, pageSize int, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		client:   client,
		pageSize: pageSize,
		log:      log.WithFields(logrus.Fields{"pkg": "imapbox", "server": addr}),
	}
}

func (c *Client) login(username, password string) error {
	err := c.client.Login(username, password).Wait()
	if err == nil {
		return nil
	}
	var imapErr *imap.Error
	if errors.As(err, &imapErr) && imapErr.Type == imap.StatusResponseTypeNo {
		return fmt.Errorf("%w for %s: %w", ErrAuthFailed, username, err)
	}
	return fmt.Errorf("logging in as %s: %w", username, err)
}

// Close logs out and closes the connection.
func (c *Client) Close() error {
	if err := c.client.Logout().Wait(); err != nil {
		c.log.WithError(err).Debug("Logout failed")
	}
	return c.client.Close()
}

// ListPage selects the mailbox named by label and pages through its UIDs,
// newest first. The UID list is taken once, when the first page is asked for.
func (c *Client) ListPage(ctx context.Context, label, pageToken string) (inbox.Page, error) {
	if err := ctx.Err(); err != nil {
		return inbox.Page{}, err
	}
	if pageToken == "" || c.selected != label {
		if err := c.snapshot(label); err != nil {
			return inbox.Page{}, err
		}
	}
	return inbox.Paginate(c.uids, pageToken, c.pageSize)
}

// UIDValidity reports the UIDVALIDITY of mailbox. UIDs are only stable while
// it stays the same.
func (c *Client) UIDValidity(mailbox string) (uint32, error) {
	data, err := c.client.Status(mailbox, &imap.StatusOptions{UIDValidity: true}).Wait()
	if err != nil {
		return 0, fmt.Errorf("status of %s: %w", mailbox, err)
	}
	return data.UIDValidity, nil
}

// selectMailbox opens mailbox unless it is already open.
func (c *Client) selectMailbox(mailbox string) error {
	if c.current == mailbox {
		return nil
	}
	if _, err := c.client.Select(mailbox, nil).Wait(); err != nil {
		c.current = ""
		return fmt.Errorf("selecting %s: %w", mailbox, err)
	}
	c.current = mailbox
	return nil
}

func (c *Client) snapshot(mailbox string) error {
	selectData, err := c.client.Select(mailbox, nil).Wait()
	if err != nil {
		c.current = ""
		return fmt.Errorf("selecting %s: %w", mailbox, err)
	}
	c.current = mailbox

	data, err := c.client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return fmt.Errorf("searching %s: %w", mailbox, err)
	}

	uids := data.AllUIDs()
	slices.SortFunc(uids, func(a, b imap.UID) int { return cmp.Compare(b, a) })

	if c.selected == mailbox && c.uidValidity != 0 && c.uidValidity != selectData.UIDValidity {
		c.log.WithField("mailbox", mailbox).Warn("UIDVALIDITY changed since the last listing")
	}
	c.selected = mailbox
	c.uidValidity = selectData.UIDValidity
	c.uids = make([]string, 0, len(uids))
	for _, uid := range uids {
		c.uids = append(c.uids, strconv.FormatUint(uint64(uid), 10))
	}
	c.log.WithFields(logrus.Fields{
		"mailbox":     mailbox,
		"messages":    len(uids),
		"uidvalidity": selectData.UIDValidity,
	}).Info("Selected mailbox")
	return nil
}

// Fetch downloads a full message without setting \Seen.
func (c *Client) Fetch(ctx context.Context, id string) (*inbox.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	uid, err := parseUID(id)
	if err != nil {
		return nil, err
	}
	if c.selected != "" {
		if err := c.selectMailbox(c.selected); err != nil {
			return nil, err
		}
	}

	section := &imap.FetchItemBodySection{Peek: true}
	cmd := c.client.Fetch(imap.UIDSetNum(uid), &imap.FetchOptions{
		UID:          true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{section},
	})
	defer cmd.Close()

	msg := cmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message UID %d: %w", uid, inbox.ErrNotFound)
	}
	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message UID %d: %w", uid, err)
	}
	if err := cmd.Close(); err != nil {
		return nil, fmt.Errorf("fetching message UID %d: %w", uid, err)
	}

	literal := buf.FindBodySection(section)
	if literal == nil {
		return nil, fmt.Errorf("message UID %d has no body", uid)
	}
	return inbox.ParseRFC822(id, literal, buf.InternalDate)
}

func parseUID(id string) (imap.UID, error) {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid UID %q", id)
	}
	return imap.UID(n), nil
}
