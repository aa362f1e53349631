package cache

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/bassamadnan/mailsort/inbox"
)

// Provider serves Fetch from the Store when it can and fills the Store from
// the wrapped provider when it cannot. Listing always goes to the provider.
// Cache errors are logged and never fail a fetch.
type Provider struct {
	inbox.Provider

	store     *Store
	namespace string
	log       *logrus.Entry
}

func Wrap(p inbox.Provider, store *Store, namespace string, log *logrus.Entry) *Provider {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Provider{
		Provider:  p,
		store:     store,
		namespace: namespace,
		log:       log.WithFields(logrus.Fields{"pkg": "cache", "namespace": namespace}),
	}
}

func (p *Provider) Fetch(ctx context.Context, id string) (*inbox.RawMessage, error) {
	raw, ok, err := p.store.Get(ctx, p.namespace, id)
	if err != nil {
		p.log.WithError(err).WithField("id", id).Warn("Cache read failed")
	}
	if ok {
		return raw, nil
	}

	raw, err = p.Provider.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw != nil && raw.ID == id {
		if err := p.store.Put(ctx, p.namespace, raw); err != nil {
			p.log.WithError(err).WithField("id", id).Warn("Cache write failed")
		}
	}
	return raw, nil
}
