package forumapi

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/threadline/threadline/internal/forum"
	"github.com/threadline/threadline/internal/identity"
	"github.com/threadline/threadline/internal/loader"
	"github.com/threadline/threadline/internal/models"
)

// PostView is the serialized form of a post. Author and viewer-vote fields
// are hydrated through the request's batch loaders so that serializing a
// page of posts costs one user query and one vote query, not 2N.
type PostView struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	TextSnippet string    `json:"text_snippet"`
	Points      int64     `json:"points"`
	AuthorID    int64     `json:"author_id"`
	Author      string    `json:"author,omitempty"`
	ViewerVote  int64     `json:"viewer_vote"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newPostView(post *models.Post) *PostView {
	return &PostView{
		ID:          post.ID,
		Title:       post.Title,
		Text:        post.Text,
		TextSnippet: post.Snippet(),
		Points:      post.Points,
		AuthorID:    post.UserID,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
}

func serializePosts(ctx context.Context, posts []*models.Post) ([]*PostView, error) {
	views := lo.Map(posts, func(p *models.Post, _ int) *PostView {
		return newPostView(p)
	})

	loaders := loader.FromContext(ctx)
	if loaders == nil || len(posts) == 0 {
		return views, nil
	}

	authorIDs := lo.Map(posts, func(p *models.Post, _ int) int64 { return p.UserID })
	authors, err := loaders.Users.LoadAll(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	for i, author := range authors {
		if author != nil {
			views[i].Author = author.Username
		}
	}

	viewerID, ok := identity.UserID(ctx)
	if !ok {
		return views, nil
	}

	keys := lo.Map(posts, func(p *models.Post, _ int) forum.VoteKey {
		return forum.VoteKey{PostID: p.ID, UserID: viewerID}
	})
	votes, err := loaders.Votes.LoadAll(ctx, keys)
	if err != nil {
		return nil, err
	}
	for i, vote := range votes {
		if vote != nil {
			views[i].ViewerVote = vote.Value
		}
	}

	return views, nil
}

func serializePost(ctx context.Context, post *models.Post) (*PostView, error) {
	views, err := serializePosts(ctx, []*models.Post{post})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}
