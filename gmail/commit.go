package gmail

import (
	"context"
	"fmt"

	"github.com/bradenaw/juniper/xslices"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/gmail/v1"

	"github.com/bassamadnan/mailsort/triage"
)

// batchModifyLimit is the maximum number of ids per BatchModify request.
const batchModifyLimit = 1000

// Committer relabels reviewed messages. A message moving from Inbox loses the
// reviewed label and gains the label of its disposition; a message already
// committed swaps its old disposition label for the new one. An empty label
// name adds or removes nothing, which is how Gmail archives.
//
// The committer remembers what it has written, so committing the same working
// set again only sends the records whose disposition changed since.
type Committer struct {
	client    *Client
	reviewed  string
	labels    map[triage.Disposition]string
	committed map[string]triage.Disposition
}

// NewCommitter maps dispositions to label names; see
// config.CommitConfig.Destinations.
func NewCommitter(client *Client, reviewed string, labels map[triage.Disposition]string) *Committer {
	return &Committer{
		client:    client,
		reviewed:  reviewed,
		labels:    labels,
		committed: make(map[string]triage.Disposition),
	}
}

type transition struct {
	from, to triage.Disposition
}

func (c *Committer) Commit(ctx context.Context, emails []triage.Email) error {
	groups := make(map[transition][]string)
	for _, e := range emails {
		from := c.committed[e.ID]
		if e.Status == from {
			continue
		}
		t := transition{from: from, to: e.Status}
		groups[t] = append(groups[t], e.ID)
	}
	if len(groups) == 0 {
		return nil
	}

	for _, from := range triage.Dispositions() {
		for _, to := range triage.Dispositions() {
			ids := groups[transition{from, to}]
			if len(ids) == 0 {
				continue
			}
			if err := c.commitGroup(ctx, from, to, ids); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Committer) commitGroup(ctx context.Context, from, to triage.Disposition, ids []string) error {
	req := &gmail.BatchModifyMessagesRequest{}
	if id, err := c.dispositionLabel(ctx, from, false); err != nil {
		return err
	} else if id != "" {
		req.RemoveLabelIds = []string{id}
	}
	if id, err := c.dispositionLabel(ctx, to, true); err != nil {
		return err
	} else if id != "" {
		req.AddLabelIds = []string{id}
	}

	if len(req.AddLabelIds) > 0 || len(req.RemoveLabelIds) > 0 {
		for _, chunk := range xslices.Chunk(ids, batchModifyLimit) {
			req.Ids = chunk
			if err := c.batchModify(ctx, req); err != nil {
				return fmt.Errorf("committing %s: %w", to, err)
			}
			for _, id := range chunk {
				c.committed[id] = to
			}
		}
	} else {
		for _, id := range ids {
			c.committed[id] = to
		}
	}

	c.client.log.WithFields(logrus.Fields{
		"from":     from.String(),
		"to":       to.String(),
		"messages": len(ids),
	}).Info("Committed dispositions")
	return nil
}

// dispositionLabel returns the label id standing for d: the reviewed label for
// Inbox, the configured label otherwise, "" when none is configured. Removing
// a label that does not exist is pointless, so create only applies to labels
// being added.
func (c *Committer) dispositionLabel(ctx context.Context, d triage.Disposition, create bool) (string, error) {
	if d == triage.Inbox {
		return c.client.labelID(ctx, c.reviewed, false)
	}
	name := c.labels[d]
	if name == "" {
		return "", nil
	}
	return c.client.labelID(ctx, name, create)
}

func (c *Committer) batchModify(ctx context.Context, req *gmail.BatchModifyMessagesRequest) error {
	if err := c.client.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.client.srv.Users.Messages.BatchModify(c.client.user, req).Context(ctx).Do()
}
