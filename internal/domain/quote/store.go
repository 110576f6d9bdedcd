package quote

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when a document does not exist.
var ErrNotFound = errors.New("quote not found")

// Store is a collection-scoped document store. Create assigns the document
// id and the save timestamp. An empty ownerID lists the whole collection.
type Store interface {
	Create(ctx context.Context, collection string, q Quote) (Quote, error)
	List(ctx context.Context, collection, ownerID string) ([]Quote, error)
	Get(ctx context.Context, collection, id string) (Quote, error)
	Delete(ctx context.Context, collection, id string) error
}

func CollectionPath(appID string) string {
	return "artifacts/" + appID + "/public/data/quotes"
}
