package imapbox

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/bradenaw/juniper/xslices"
	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/sirupsen/logrus"

	"github.com/bassamadnan/mailsort/triage"
)

// Committer moves reviewed messages into the mailbox configured for their
// disposition. Inbox, and dispositions mapped to an empty name, belong in the
// listed mailbox.
//
// The committer follows every message it moves, so committing again only
// moves messages whose disposition changed, and moves them from wherever the
// previous commit left them.
type Committer struct {
	client    *Client
	mailboxes map[triage.Disposition]string
	placed    map[string]location
}

type location struct {
	mailbox string
	// uid is 0 when the server did not report where the message landed.
	uid imap.UID
}

type move struct {
	from, to string
}

// NewCommitter maps dispositions to mailbox names; see
// config.CommitConfig.Destinations.
func NewCommitter(client *Client, mailboxes map[triage.Disposition]string) *Committer {
	return &Committer{
		client:    client,
		mailboxes: mailboxes,
		placed:    make(map[string]location),
	}
}

func (c *Committer) destination(d triage.Disposition) string {
	if name := c.mailboxes[d]; d != triage.Inbox && name != "" {
		return name
	}
	return c.client.selected
}

func (c *Committer) Commit(ctx context.Context, emails []triage.Email) (err error) {
	reviewed := c.client.selected

	from := make(map[string]location)
	groups := make(map[move][]string)
	for _, e := range emails {
		loc, ok := c.placed[e.ID]
		if !ok {
			uid, err := parseUID(e.ID)
			if err != nil {
				return err
			}
			loc = location{mailbox: reviewed, uid: uid}
		}
		to := c.destination(e.Status)
		if loc.mailbox == to {
			continue
		}
		if loc.uid == 0 {
			return fmt.Errorf("message %s was moved to %s but its new UID is unknown", e.ID, loc.mailbox)
		}
		from[e.ID] = loc
		m := move{from: loc.mailbox, to: to}
		groups[m] = append(groups[m], e.ID)
	}
	if len(groups) == 0 {
		return nil
	}
	if reviewed == "" {
		return errors.New("nothing has been listed yet")
	}

	defer func() {
		if selErr := c.client.selectMailbox(reviewed); selErr != nil {
			err = errors.Join(err, selErr)
		}
	}()

	moves := make([]move, 0, len(groups))
	for m := range groups {
		moves = append(moves, m)
	}
	slices.SortFunc(moves, func(a, b move) int {
		return cmp.Or(cmp.Compare(a.from, b.from), cmp.Compare(a.to, b.to))
	})

	for _, m := range moves {
		if err := ctx.Err(); err != nil {
			return err
		}
		ids := groups[m]
		uids := xslices.Map(ids, func(id string) imap.UID { return from[id].uid })

		if err := c.client.selectMailbox(m.from); err != nil {
			return err
		}
		data, err := c.client.client.Move(imap.UIDSetNum(uids...), m.to).Wait()
		if err != nil {
			return fmt.Errorf("moving %d messages from %s to %s: %w", len(uids), m.from, m.to, err)
		}

		landed := destUIDs(data)
		for _, id := range ids {
			c.placed[id] = location{mailbox: m.to, uid: landed[from[id].uid]}
		}
		c.client.log.WithFields(logrus.Fields{
			"from":     m.from,
			"to":       m.to,
			"messages": len(ids),
		}).Info("Committed dispositions")
	}
	return nil
}

// destUIDs pairs source and destination UIDs from the COPYUID data of a move.
// Both sets list UIDs in the same order, which for a UID set is ascending.
func destUIDs(data *imapclient.MoveData) map[imap.UID]imap.UID {
	if data == nil {
		return nil
	}
	src, ok := data.SourceUIDs.(imap.UIDSet)
	if !ok {
		return nil
	}
	dst, ok := data.DestUIDs.(imap.UIDSet)
	if !ok {
		return nil
	}
	srcUIDs, ok := src.Nums()
	if !ok {
		return nil
	}
	dstUIDs, ok := dst.Nums()
	if !ok || len(srcUIDs) != len(dstUIDs) {
		return nil
	}
	slices.Sort(srcUIDs)
	slices.Sort(dstUIDs)

	landed := make(map[imap.UID]imap.UID, len(srcUIDs))
	for i, uid := range srcUIDs {
		landed[uid] = dstUIDs[i]
	}
	return landed
}
