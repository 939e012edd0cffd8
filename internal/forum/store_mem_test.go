package forum

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/threadline/threadline/internal/models"
)

// memStore is an in-memory Store for tests. Atomically serializes
// transactions with a lock and rolls the data back on error, mirroring the
// database implementation's guarantees.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users  map[int64]*models.User
	posts  map[int64]*models.Post
	votes  map[VoteKey]*models.Vote
	nextID int64

	lastListLimit int
	failures      map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]*models.User),
		posts:    make(map[int64]*models.Post),
		votes:    make(map[VoteKey]*models.Vote),
		failures: make(map[string]error),
	}
}

// failOnce makes the named operation fail exactly once.
func (m *memStore) failOnce(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

func (m *memStore) fail(op string) error {
	if err, ok := m.failures[op]; ok {
		delete(m.failures, op)
		return err
	}
	return nil
}

type memSnapshot struct {
	users map[int64]*models.User
	posts map[int64]*models.Post
	votes map[VoteKey]*models.Vote
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := memSnapshot{
		users: make(map[int64]*models.User, len(m.users)),
		posts: make(map[int64]*models.Post, len(m.posts)),
		votes: make(map[VoteKey]*models.Vote, len(m.votes)),
	}
	for id, u := range m.users {
		cp := *u
		snap.users[id] = &cp
	}
	for id, p := range m.posts {
		cp := *p
		snap.posts[id] = &cp
	}
	for k, v := range m.votes {
		cp := *v
		snap.votes[k] = &cp
	}
	return snap
}

func (m *memStore) restore(snap memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = snap.users
	m.posts = snap.posts
	m.votes = snap.votes
}

func (m *memStore) Atomically(ctx context.Context, fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetPost"); err != nil {
		return nil, err
	}
	post, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *post
	return &cp, nil
}

func (m *memStore) GetPostForUpdate(ctx context.Context, id int64) (*models.Post, error) {
	return m.GetPost(ctx, id)
}

func (m *memStore) CreatePost(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreatePost"); err != nil {
		return err
	}
	m.nextID++
	post.ID = m.nextID
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *memStore) UpdatePost(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdatePost"); err != nil {
		return err
	}
	post.UpdatedAt = time.Now().UTC()
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *memStore) DeletePost(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeletePost"); err != nil {
		return err
	}
	delete(m.posts, id)
	// Vote rows never outlive their post.
	for key := range m.votes {
		if key.PostID == id {
			delete(m.votes, key)
		}
	}
	return nil
}

func (m *memStore) ListPosts(ctx context.Context, limit int, before *time.Time) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListPosts"); err != nil {
		return nil, err
	}
	m.lastListLimit = limit

	var posts []*models.Post
	for _, p := range m.posts {
		if before != nil && !p.CreatedAt.Before(*before) {
			continue
		}
		cp := *p
		posts = append(posts, &cp)
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (m *memStore) CountPosts(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CountPosts"); err != nil {
		return 0, err
	}
	return int64(len(m.posts)), nil
}

func (m *memStore) OldestPost(ctx context.Context) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("OldestPost"); err != nil {
		return nil, err
	}
	var oldest *models.Post
	for _, p := range m.posts {
		if oldest == nil ||
			p.CreatedAt.Before(oldest.CreatedAt) ||
			(p.CreatedAt.Equal(oldest.CreatedAt) && p.ID < oldest.ID) {
			oldest = p
		}
	}
	if oldest == nil {
		return nil, nil
	}
	cp := *oldest
	return &cp, nil
}

func (m *memStore) GetVote(ctx context.Context, key VoteKey) (*models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetVote"); err != nil {
		return nil, err
	}
	vote, ok := m.votes[key]
	if !ok {
		return nil, nil
	}
	cp := *vote
	return &cp, nil
}

func (m *memStore) GetVotes(ctx context.Context, keys []VoteKey) ([]*models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetVotes"); err != nil {
		return nil, err
	}
	votes := make([]*models.Vote, len(keys))
	for i, key := range keys {
		if vote, ok := m.votes[key]; ok {
			cp := *vote
			votes[i] = &cp
		}
	}
	return votes, nil
}

func (m *memStore) CreateVote(ctx context.Context, vote *models.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateVote"); err != nil {
		return err
	}
	key := VoteKey{PostID: vote.PostID, UserID: vote.UserID}
	if _, ok := m.votes[key]; ok {
		return ErrConflict
	}
	now := time.Now().UTC()
	vote.CreatedAt = now
	vote.UpdatedAt = now
	cp := *vote
	m.votes[key] = &cp
	return nil
}

func (m *memStore) UpdateVote(ctx context.Context, vote *models.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateVote"); err != nil {
		return err
	}
	vote.UpdatedAt = time.Now().UTC()
	cp := *vote
	m.votes[VoteKey{PostID: vote.PostID, UserID: vote.UserID}] = &cp
	return nil
}

func (m *memStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (m *memStore) GetUsers(ctx context.Context, ids []int64) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]*models.User, len(ids))
	for i, id := range ids {
		if user, ok := m.users[id]; ok {
			cp := *user
			users[i] = &cp
		}
	}
	return users, nil
}

func (m *memStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

var _ Store = (*memStore)(nil)

// mustCreatePost seeds a post directly in the store.
func mustCreatePost(t *testing.T, store *memStore, authorID int64, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:     "title",
		Text:      "text",
		UserID:    authorID,
		CreatedAt: createdAt,
	}
	if err := store.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}
	return post
}
