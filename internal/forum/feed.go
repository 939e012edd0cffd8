package forum

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/threadline/threadline/internal/cache"
	"github.com/threadline/threadline/internal/models"
	"github.com/threadline/threadline/pkg/logging"
	"github.com/threadline/threadline/pkg/telemetry"
)

// MaxPageSize caps the number of posts returned per page regardless of the
// requested limit.
const MaxPageSize = 50

const countCacheKey = "feed:total_count"

// Page is one page of the time-ordered feed.
type Page struct {
	Items      []*models.Post
	NextCursor time.Time
	HasMore    bool
	TotalCount int64
}

// FeedService produces cursor-paginated pages of posts, newest first.
type FeedService struct {
	store    Store
	counts   *cache.Cache
	countTTL time.Duration
	logger   *zap.Logger
}

// NewFeedService creates a new feed service. counts may be nil when no cache
// is configured; countTTL bounds how stale the cached total may be.
func NewFeedService(store Store, counts *cache.Cache, countTTL time.Duration) *FeedService {
	return &FeedService{
		store:    store,
		counts:   counts,
		countTTL: countTTL,
		logger:   logging.GetLogger().With(zap.String("component", "feed")),
	}
}

// List returns up to limit posts ordered by created_at descending, id
// descending. When cursor is non-nil only posts created strictly before it
// are returned. The limit is clamped to [1, MaxPageSize].
//
// The total count runs concurrently with the page query; it need not come
// from the same snapshot.
func (s *FeedService) List(ctx context.Context, limit int, cursor *time.Time) (*Page, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.list")
	defer span.End()

	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if limit < 1 {
		limit = 1
	}

	type countResult struct {
		n   int64
		err error
	}
	countCh := make(chan countResult, 1)
	go func() {
		n, err := s.totalCount(ctx)
		countCh <- countResult{n: n, err: err}
	}()

	posts, err := s.store.ListPosts(ctx, limit, cursor)
	if err != nil {
		return nil, storeErr("feed.list", err)
	}

	// The oldest post anchors the has-more check when paging with a cursor.
	var oldest *models.Post
	if cursor != nil && len(posts) > 0 {
		oldest, err = s.store.OldestPost(ctx)
		if err != nil {
			return nil, storeErr("feed.oldest", err)
		}
	}

	count := <-countCh
	if count.err != nil {
		return nil, count.err
	}

	page := &Page{Items: posts, TotalCount: count.n}
	switch {
	case len(posts) > 0:
		last := posts[len(posts)-1]
		page.NextCursor = last.CreatedAt
		if cursor != nil {
			page.HasMore = oldest != nil && !last.CreatedAt.Equal(oldest.CreatedAt)
		} else {
			page.HasMore = int64(len(posts)) != count.n
		}
	case cursor != nil:
		page.NextCursor = *cursor
	default:
		page.NextCursor = time.Now().UTC()
	}
	return page, nil
}

func (s *FeedService) totalCount(ctx context.Context) (int64, error) {
	if s.counts != nil {
		var n int64
		if err := s.counts.GetJSON(countCacheKey, &n); err == nil {
			return n, nil
		}
	}

	n, err := s.store.CountPosts(ctx)
	if err != nil {
		return 0, storeErr("feed.count", err)
	}

	if s.counts != nil {
		if err := s.counts.SetJSON(countCacheKey, n, s.countTTL); err != nil && err != cache.ErrCacheDisabled {
			s.logger.Warn("failed to cache post count", zap.Error(err))
		}
	}
	return n, nil
}
