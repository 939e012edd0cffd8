package loader

import (
	"context"

	"github.com/threadline/threadline/internal/forum"
	"github.com/threadline/threadline/internal/models"
)

// Loaders bundles the batch loaders built for one incoming request. Results
// are cached for the lifetime of the request only; a Loaders value must be
// rebuilt for every request, never reused or shared.
type Loaders struct {
	Users *Loader[int64, *models.User]
	Votes *Loader[forum.VoteKey, *models.Vote]
}

// NewLoaders builds a fresh set of loaders over the store's batch getters.
func NewLoaders(store forum.Store) *Loaders {
	return &Loaders{
		Users: New(store.GetUsers, 0),
		Votes: New(store.GetVotes, 0),
	}
}

type ctxKey struct{}

// WithLoaders attaches request-scoped loaders to a context
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the loaders attached to the context, or nil
func FromContext(ctx context.Context) *Loaders {
	l, _ := ctx.Value(ctxKey{}).(*Loaders)
	return l
}
