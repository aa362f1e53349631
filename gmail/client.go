package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/bradenaw/juniper/xslices"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/bassamadnan/mailsort/config"
	"github.com/bassamadnan/mailsort/credential"
	"github.com/bassamadnan/mailsort/inbox"
)

// Headers requested with each message; everything the normalizer reads.
var metadataHeaders = []string{"Subject", "From", "Sender"}

// Client lists and fetches Gmail messages. It implements inbox.Provider.
// Labels are addressed by name and resolved to ids once per client.
type Client struct {
	srv     *gmail.Service
	user    string
	limiter *rate.Limiter
	log     *logrus.Entry

	labelIDs map[string]string
}

// NewClient authenticates against Gmail with the OAuth client in
// cfg.CredentialsFile. The token is kept in the keyring; when none is stored
// the user is walked through the consent flow. modify requests the scope
// needed to change labels.
func NewClient(ctx context.Context, cfg config.GmailConfig, creds *credential.Store, modify bool, log *logrus.Entry) (*Client, error) {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	scope, tokenKey := gmail.GmailReadonlyScope, cfg.TokenKey
	if modify {
		scope, tokenKey = gmail.GmailModifyScope, cfg.TokenKey+":modify"
	}
	oauthConfig, err := google.ConfigFromJSON(b, scope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	httpClient, err := getOAuthClient(ctx, oauthConfig, creds, tokenKey)
	if err != nil {
		return nil, err
	}
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return newClient(srv, cfg.User, rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1), log), nil
}

func newClient(srv *gmail.Service, user string, limiter *rate.Limiter, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		srv:     srv,
		user:    user,
		limiter: limiter,
		log:     log.WithField("pkg", "gmail"),
	}
}

func getOAuthClient(ctx context.Context, oauthConfig *oauth2.Config, creds *credential.Store, tokenKey string) (*http.Client, error) {
	raw, err := creds.GetOrPrompt(tokenKey, func() (string, error) {
		tok, err := getTokenFromWeb(ctx, oauthConfig)
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(tok)
		if err != nil {
			return "", fmt.Errorf("encoding oauth token: %w", err)
		}
		return string(b), nil
	})
	if err != nil {
		return nil, err
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal([]byte(raw), tok); err != nil {
		return nil, fmt.Errorf("decoding stored oauth token: %w", err)
	}
	return oauthConfig.Client(ctx, tok), nil
}

func getTokenFromWeb(ctx context.Context, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser:\n%v\n\n", authURL)

	authCode, err := credential.Prompt("Authorization code", "Paste the code shown after granting access.", false)
	if err != nil {
		return nil, err
	}
	tok, err := oauthConfig.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// ListPage returns one page of message ids carrying the label named label.
func (c *Client) ListPage(ctx context.Context, label, pageToken string) (inbox.Page, error) {
	labelID, err := c.labelID(ctx, label, false)
	if err != nil {
		return inbox.Page{}, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return inbox.Page{}, err
	}

	call := c.srv.Users.Messages.List(c.user).LabelIds(labelID).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return inbox.Page{}, fmt.Errorf("listing messages with label %s: %w", label, err)
	}

	page := inbox.Page{NextPageToken: resp.NextPageToken}
	if resp.Messages != nil {
		page.IDs = xslices.Map(resp.Messages, func(m *gmail.Message) string {
			if m == nil {
				return ""
			}
			return m.Id
		})
	}
	c.log.WithFields(logrus.Fields{
		"ids":  len(page.IDs),
		"more": page.NextPageToken != "",
	}).Debug("Listed page")
	return page, nil
}

// Fetch retrieves the headers and snippet of one message.
func (c *Client) Fetch(ctx context.Context, id string) (*inbox.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	msg, err := c.srv.Users.Messages.Get(c.user, id).
		Format("metadata").
		MetadataHeaders(metadataHeaders...).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("message %s: %w", id, inbox.ErrNotFound)
		}
		return nil, fmt.Errorf("getting message %s: %w", id, err)
	}
	return toRawMessage(msg), nil
}

// toRawMessage keeps the parts of a Gmail message the normalizer reads. The
// API client decodes an absent snippet as "", so the snippet is always
// present; a zero internal date is treated as missing.
func toRawMessage(msg *gmail.Message) *inbox.RawMessage {
	snippet := msg.Snippet
	raw := &inbox.RawMessage{
		ID:      msg.Id,
		Snippet: &snippet,
	}
	if msg.InternalDate != 0 {
		raw.InternalDate = fmt.Sprint(msg.InternalDate)
	}
	if msg.Payload != nil && msg.Payload.Headers != nil {
		raw.Headers = make([]inbox.Header, 0, len(msg.Payload.Headers))
		for _, h := range msg.Payload.Headers {
			if h == nil {
				continue
			}
			raw.Headers = append(raw.Headers, inbox.Header{Name: h.Name, Value: h.Value})
		}
	}
	return raw
}

// labelID resolves a label name to its id, creating the label when create is
// set and it does not exist yet. Names match case-insensitively; an existing
// label id is accepted as its own name.
func (c *Client) labelID(ctx context.Context, name string, create bool) (string, error) {
	if c.labelIDs == nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		resp, err := c.srv.Users.Labels.List(c.user).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("listing labels: %w", err)
		}
		c.labelIDs = make(map[string]string, 2*len(resp.Labels))
		for _, l := range resp.Labels {
			c.labelIDs[l.Id] = l.Id
		}
		for _, l := range resp.Labels {
			c.labelIDs[strings.ToLower(l.Name)] = l.Id
		}
	}

	if id, ok := c.labelIDs[strings.ToLower(name)]; ok {
		return id, nil
	}
	if id, ok := c.labelIDs[name]; ok {
		return id, nil
	}
	if !create {
		return "", fmt.Errorf("label %q does not exist", name)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	label, err := c.srv.Users.Labels.Create(c.user, &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("creating label %q: %w", name, err)
	}
	c.log.WithField("label", name).Info("Created label")
	c.labelIDs[strings.ToLower(name)] = label.Id
	return label.Id, nil
}
