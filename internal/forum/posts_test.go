package forum

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreatePost(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewPostService(store, nil)

	post, err := svc.Create(ctx, 7, "Hello", "first post")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if post.ID == 0 {
		t.Error("post.ID = 0, want assigned id")
	}
	if post.UserID != 7 {
		t.Errorf("post.UserID = %d, want 7", post.UserID)
	}
	if post.Points != 0 {
		t.Errorf("post.Points = %d, want 0", post.Points)
	}

	stored, err := store.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if stored == nil || stored.Title != "Hello" || stored.Text != "first post" {
		t.Errorf("stored post = %+v, want title/text persisted", stored)
	}
}

func TestCreatePost_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewPostService(newMemStore(), nil)

	tests := []struct {
		name     string
		authorID int64
		title    string
		text     string
		want     error
	}{
		{"anonymous author", 0, "Hello", "body", ErrUnauthorized},
		{"empty title", 7, "", "body", ErrValidation},
		{"blank title", 7, "   ", "body", ErrValidation},
		{"empty text", 7, "Hello", "", ErrValidation},
		{"blank text", 7, "Hello", "\t\n", ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.authorID, tt.title, tt.text)
			if !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGetPost_AbsentIsNotAnError(t *testing.T) {
	ctx := context.Background()
	svc := NewPostService(newMemStore(), nil)

	post, err := svc.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if post != nil {
		t.Errorf("Get() = %+v, want nil for a missing post", post)
	}
}

func TestEditPost(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	post := mustCreatePost(t, store, 7, time.Now().UTC())
	svc := NewPostService(store, nil)

	updated, err := svc.Edit(ctx, post.ID, 7, "New title", "new text")
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if updated.Title != "New title" || updated.Text != "new text" {
		t.Errorf("Edit() = %+v, want updated title and text", updated)
	}

	stored, _ := store.GetPost(ctx, post.ID)
	if stored.Title != "New title" || stored.Text != "new text" {
		t.Errorf("stored post = %+v, edit not persisted", stored)
	}
	if stored.UserID != 7 {
		t.Errorf("stored post owner = %d, want unchanged 7", stored.UserID)
	}
}

func TestEditPost_Gating(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	post := mustCreatePost(t, store, 7, time.Now().UTC())
	svc := NewPostService(store, nil)

	tests := []struct {
		name     string
		postID   int64
		callerID int64
		title    string
		text     string
		want     error
	}{
		{"anonymous caller", post.ID, 0, "t", "x", ErrUnauthorized},
		{"not the owner", post.ID, 8, "t", "x", ErrUnauthorized},
		{"missing post", post.ID + 99, 7, "t", "x", ErrNotFound},
		{"blank title", post.ID, 7, " ", "x", ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Edit(ctx, tt.postID, tt.callerID, tt.title, tt.text)
			if !errors.Is(err, tt.want) {
				t.Errorf("Edit() error = %v, want %v", err, tt.want)
			}
		})
	}

	// None of the rejected edits may have touched the row.
	stored, _ := store.GetPost(ctx, post.ID)
	if stored.Title != "title" || stored.Text != "text" {
		t.Errorf("stored post = %+v, want untouched", stored)
	}
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	post := mustCreatePost(t, store, 7, time.Now().UTC())
	svc := NewPostService(store, nil)

	// Votes on the post must go with it.
	votes := NewVoteService(store)
	if _, err := votes.Cast(ctx, post.ID, 2, Up); err != nil {
		t.Fatalf("Cast() error = %v", err)
	}

	if err := svc.Delete(ctx, post.ID, 7); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	stored, _ := store.GetPost(ctx, post.ID)
	if stored != nil {
		t.Errorf("post still present after delete: %+v", stored)
	}
	vote, _ := store.GetVote(ctx, VoteKey{PostID: post.ID, UserID: 2})
	if vote != nil {
		t.Errorf("vote row survived post delete: %+v", vote)
	}
}

func TestDeletePost_Gating(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	post := mustCreatePost(t, store, 7, time.Now().UTC())
	svc := NewPostService(store, nil)

	tests := []struct {
		name     string
		postID   int64
		callerID int64
		want     error
	}{
		{"anonymous caller", post.ID, 0, ErrUnauthorized},
		{"not the owner", post.ID, 8, ErrUnauthorized},
		{"missing post", post.ID + 99, 7, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Delete(ctx, tt.postID, tt.callerID)
			if !errors.Is(err, tt.want) {
				t.Errorf("Delete() error = %v, want %v", err, tt.want)
			}
		})
	}

	if stored, _ := store.GetPost(ctx, post.ID); stored == nil {
		t.Error("post deleted by a rejected call")
	}
}

func TestPostService_WrapsStoreFailures(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	post := mustCreatePost(t, store, 7, time.Now().UTC())
	svc := NewPostService(store, nil)

	boom := errors.New("connection reset")
	store.failOnce("UpdatePost", boom)

	_, err := svc.Edit(ctx, post.ID, 7, "t", "x")
	var storeFailure *StoreError
	if !errors.As(err, &storeFailure) {
		t.Fatalf("Edit() error = %v, want StoreError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Edit() error should wrap the cause, got %v", err)
	}
}
