package forum

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/threadline/threadline/internal/cache"
	"github.com/threadline/threadline/internal/models"
	"github.com/threadline/threadline/pkg/logging"
)

// PostService implements the owner-gated post lifecycle.
type PostService struct {
	store  Store
	counts *cache.Cache
	logger *zap.Logger
}

// NewPostService creates a new post service. counts may be nil when no cache
// is configured.
func NewPostService(store Store, counts *cache.Cache) *PostService {
	return &PostService{
		store:  store,
		counts: counts,
		logger: logging.GetLogger().With(zap.String("component", "posts")),
	}
}

// Create inserts a new post owned by authorID.
func (s *PostService) Create(ctx context.Context, authorID int64, title, text string) (*models.Post, error) {
	if authorID == 0 {
		return nil, ErrUnauthorized
	}
	if err := validatePostInput(title, text); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:  title,
		Text:   text,
		UserID: authorID,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, storeErr("posts.create", err)
	}

	s.dropCountCache()
	s.logger.Debug("post created", zap.Int64("post_id", post.ID), zap.Int64("author_id", authorID))
	return post, nil
}

// Get returns a post by id, or (nil, nil) when it does not exist.
func (s *PostService) Get(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, storeErr("posts.get", err)
	}
	return post, nil
}

// Edit replaces the title and text of a post. Only the owner may edit.
func (s *PostService) Edit(ctx context.Context, id, callerID int64, title, text string) (*models.Post, error) {
	if callerID == 0 {
		return nil, ErrUnauthorized
	}
	if err := validatePostInput(title, text); err != nil {
		return nil, err
	}

	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, storeErr("posts.edit", err)
	}
	if post == nil {
		return nil, ErrNotFound
	}
	if post.UserID != callerID {
		return nil, ErrUnauthorized
	}

	post.Title = title
	post.Text = text
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return nil, storeErr("posts.edit", err)
	}
	return post, nil
}

// Delete removes a post and its votes. Only the owner may delete.
func (s *PostService) Delete(ctx context.Context, id, callerID int64) error {
	if callerID == 0 {
		return ErrUnauthorized
	}

	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return storeErr("posts.delete", err)
	}
	if post == nil {
		return ErrNotFound
	}
	if post.UserID != callerID {
		return ErrUnauthorized
	}

	if err := s.store.DeletePost(ctx, id); err != nil {
		return storeErr("posts.delete", err)
	}

	s.dropCountCache()
	s.logger.Debug("post deleted", zap.Int64("post_id", id), zap.Int64("caller_id", callerID))
	return nil
}

func (s *PostService) dropCountCache() {
	if s.counts == nil {
		return
	}
	if err := s.counts.Delete(countCacheKey); err != nil && err != cache.ErrCacheDisabled {
		s.logger.Warn("failed to drop post count cache", zap.Error(err))
	}
}

func validatePostInput(title, text string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text must not be empty", ErrValidation)
	}
	return nil
}
