package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
)

// Collection binds the provider to a named collection and hands out
// references for reads and transactional writes. Repositories that need
// queries build them from Ref; transactional code like the receipt counter
// works through Doc.
type Collection struct {
	provider *Provider
	name     string
}

// NewCollection binds a collection by name.
func NewCollection(provider *Provider, name string) *Collection {
	return &Collection{provider: provider, name: strings.TrimSpace(name)}
}

// Ref resolves the collection reference through the provider's client.
func (c *Collection) Ref(ctx context.Context) (*firestore.CollectionRef, error) {
	if c == nil || c.provider == nil {
		return nil, WrapError("collection", errors.New("firestore: provider is nil"))
	}
	if c.name == "" {
		return nil, WrapError("collection", errors.New("firestore: collection name is required"))
	}
	client, err := c.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(c.name), nil
}

// Doc resolves a document reference within the collection.
func (c *Collection) Doc(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(id) == "" {
		return nil, WrapError(c.op("document"), errors.New("firestore: document id is required"))
	}
	coll, err := c.Ref(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Doc(id), nil
}

func (c *Collection) op(action string) string {
	name := "firestore"
	if c != nil && c.name != "" {
		name = c.name
	}
	return name + "." + strings.ToLower(action)
}
