package db

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/threadline/threadline/internal/forum"
	"github.com/threadline/threadline/internal/models"
)

// Store is the gorm-backed implementation of forum.Store.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store over a database connection
func NewStore(database *DB) *Store {
	return &Store{db: database.DB}
}

var _ forum.Store = (*Store)(nil)

// Atomically runs fn in a database transaction. The Store handed to fn is
// bound to that transaction, so row locks taken inside it are held until
// commit or rollback.
func (s *Store) Atomically(ctx context.Context, fn func(tx forum.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// GetPost retrieves a post by ID
func (s *Store) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// GetPostForUpdate retrieves a post by ID under a FOR UPDATE row lock
func (s *Store) GetPostForUpdate(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// CreatePost creates a new post
func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	return s.db.WithContext(ctx).Create(post).Error
}

// UpdatePost updates a post
func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	return s.db.WithContext(ctx).Save(post).Error
}

// DeletePost removes a post and its vote rows in one transaction
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
}

// ListPosts returns up to limit posts newest first, optionally created
// strictly before the given time
func (s *Store) ListPosts(ctx context.Context, limit int, before *time.Time) ([]*models.Post, error) {
	query := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	var posts []*models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// CountPosts returns the total number of posts
func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// OldestPost returns the earliest-created post
func (s *Store) OldestPost(ctx context.Context) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// GetVote retrieves a vote by its composite key
func (s *Store) GetVote(ctx context.Context, key forum.VoteKey) (*models.Vote, error) {
	var vote models.Vote
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", key.PostID, key.UserID).
		First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vote, nil
}

// GetVotes retrieves multiple votes by composite key, positionally
func (s *Store) GetVotes(ctx context.Context, keys []forum.VoteKey) ([]*models.Vote, error) {
	if len(keys) == 0 {
		return []*models.Vote{}, nil
	}

	pairs := lo.Map(keys, func(k forum.VoteKey, _ int) []interface{} {
		return []interface{}{k.PostID, k.UserID}
	})

	var votes []*models.Vote
	err := s.db.WithContext(ctx).
		Where("(post_id, user_id) IN ?", pairs).
		Find(&votes).Error
	if err != nil {
		return nil, err
	}

	byKey := lo.KeyBy(votes, func(v *models.Vote) forum.VoteKey {
		return forum.VoteKey{PostID: v.PostID, UserID: v.UserID}
	})
	return lo.Map(keys, func(k forum.VoteKey, _ int) *models.Vote {
		return byKey[k]
	}), nil
}

// CreateVote inserts a vote row; a duplicate (post, voter) pair is reported
// as forum.ErrConflict
func (s *Store) CreateVote(ctx context.Context, vote *models.Vote) error {
	if err := s.db.WithContext(ctx).Create(vote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return forum.ErrConflict
		}
		return err
	}
	return nil
}

// UpdateVote updates a vote row in place
func (s *Store) UpdateVote(ctx context.Context, vote *models.Vote) error {
	return s.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("post_id = ? AND user_id = ?", vote.PostID, vote.UserID).
		Update("value", vote.Value).Error
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetUsers retrieves multiple users by ID, positionally
func (s *Store) GetUsers(ctx context.Context, ids []int64) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	var users []*models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}

	byID := lo.KeyBy(users, func(u *models.User) int64 { return u.ID })
	return lo.Map(ids, func(id int64, _ int) *models.User {
		return byID[id]
	}), nil
}

// CreateUser creates a new user
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}
