package forumapi

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/threadline/threadline/internal/forum"
	"github.com/threadline/threadline/internal/identity"
	"github.com/threadline/threadline/pkg/logging"
)

// PostsAPI provides post-related API methods
type PostsAPI struct {
	posts  *forum.PostService
	feed   *forum.FeedService
	logger *zap.Logger
}

// NewPostsAPI creates a new posts API
func NewPostsAPI(posts *forum.PostService, feed *forum.FeedService) *PostsAPI {
	return &PostsAPI{
		posts:  posts,
		feed:   feed,
		logger: logging.GetLogger().With(zap.String("component", "posts-api")),
	}
}

// CreatePost handles forum_api.create_post
func (a *PostsAPI) CreatePost(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", forum.ErrValidation, err)
	}

	ctx := c.Request.Context()
	callerID, _ := identity.UserID(ctx)

	post, err := a.posts.Create(ctx, callerID, p.Title, p.Text)
	if err != nil {
		if isCallerFault(err) {
			return failureResponse(err), nil
		}
		return nil, err
	}

	view, err := serializePost(ctx, post)
	if err != nil {
		return nil, err
	}
	return successResponse("Post created successfully.", view), nil
}

// UpdatePost handles forum_api.update_post
func (a *PostsAPI) UpdatePost(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
		Text  string `json:"text"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", forum.ErrValidation, err)
	}

	ctx := c.Request.Context()
	callerID, _ := identity.UserID(ctx)

	post, err := a.posts.Edit(ctx, p.ID, callerID, p.Title, p.Text)
	if err != nil {
		if isCallerFault(err) {
			return failureResponse(err), nil
		}
		return nil, err
	}

	view, err := serializePost(ctx, post)
	if err != nil {
		return nil, err
	}
	return successResponse("Post updated successfully.", view), nil
}

// DeletePost handles forum_api.delete_post
func (a *PostsAPI) DeletePost(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", forum.ErrValidation, err)
	}

	ctx := c.Request.Context()
	callerID, _ := identity.UserID(ctx)

	if err := a.posts.Delete(ctx, p.ID, callerID); err != nil {
		if isCallerFault(err) {
			return failureResponse(err), nil
		}
		return nil, err
	}
	return successResponse("Deleted successfully.", nil), nil
}

// GetPost handles forum_api.get_post
func (a *PostsAPI) GetPost(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", forum.ErrValidation, err)
	}

	ctx := c.Request.Context()
	post, err := a.posts.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, nil
	}
	return serializePost(ctx, post)
}

// ListPosts handles forum_api.list_posts
func (a *PostsAPI) ListPosts(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Limit  int    `json:"limit"`
		Cursor string `json:"cursor"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", forum.ErrValidation, err)
	}

	var cursor *time.Time
	if p.Cursor != "" {
		t, err := time.Parse(time.RFC3339Nano, p.Cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed cursor %q", forum.ErrValidation, p.Cursor)
		}
		cursor = &t
	}

	ctx := c.Request.Context()
	page, err := a.feed.List(ctx, p.Limit, cursor)
	if err != nil {
		return nil, err
	}

	items, err := serializePosts(ctx, page.Items)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"items":       items,
		"next_cursor": page.NextCursor.Format(time.RFC3339Nano),
		"has_more":    page.HasMore,
		"total_count": page.TotalCount,
	}, nil
}
