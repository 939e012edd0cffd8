package forum

import (
	"context"
	"time"

	"github.com/threadline/threadline/internal/models"
)

// VoteKey identifies a vote row by its composite (post, voter) identity.
type VoteKey struct {
	PostID int64
	UserID int64
}

// PostStore provides access to the posts table. Single-entity getters return
// (nil, nil) when the row is absent.
type PostStore interface {
	GetPost(ctx context.Context, id int64) (*models.Post, error)

	// GetPostForUpdate loads a post and holds a row lock on it until the
	// enclosing transaction ends. Outside a transaction it behaves like
	// GetPost.
	GetPostForUpdate(ctx context.Context, id int64) (*models.Post, error)

	CreatePost(ctx context.Context, post *models.Post) error
	UpdatePost(ctx context.Context, post *models.Post) error

	// DeletePost removes a post together with all of its vote rows. Vote
	// rows never outlive their post.
	DeletePost(ctx context.Context, id int64) error

	// ListPosts returns up to limit posts ordered by created_at descending,
	// id descending. When before is non-nil only posts created strictly
	// earlier are returned.
	ListPosts(ctx context.Context, limit int, before *time.Time) ([]*models.Post, error)

	CountPosts(ctx context.Context) (int64, error)

	// OldestPost returns the earliest-created post, or (nil, nil) when the
	// table is empty.
	OldestPost(ctx context.Context) (*models.Post, error)
}

// VoteStore provides access to the votes table.
type VoteStore interface {
	GetVote(ctx context.Context, key VoteKey) (*models.Vote, error)

	// GetVotes returns one element per requested key, in key order, with
	// nil for keys that have no vote row.
	GetVotes(ctx context.Context, keys []VoteKey) ([]*models.Vote, error)

	// CreateVote inserts a new vote row. A collision on the (post, voter)
	// identity is reported as ErrConflict.
	CreateVote(ctx context.Context, vote *models.Vote) error
	UpdateVote(ctx context.Context, vote *models.Vote) error
}

// UserStore provides access to the users table.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)

	// GetUsers returns one element per requested id, in id order, with nil
	// for ids that have no row.
	GetUsers(ctx context.Context, ids []int64) ([]*models.User, error)

	CreateUser(ctx context.Context, user *models.User) error
}

// Store is the persistence boundary for the forum core.
type Store interface {
	PostStore
	VoteStore
	UserStore

	// Atomically runs fn inside a transaction. fn receives a Store bound to
	// that transaction; any error aborts the whole transaction and no
	// partial write becomes observable.
	Atomically(ctx context.Context, fn func(tx Store) error) error
}
