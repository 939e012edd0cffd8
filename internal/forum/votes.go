package forum

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/threadline/threadline/internal/models"
	"github.com/threadline/threadline/pkg/logging"
	"github.com/threadline/threadline/pkg/telemetry"
)

// Direction is a signed unit vote value.
type Direction int64

const (
	Up   Direction = 1
	Down Direction = -1
)

// Valid reports whether d is one of the two legal directions.
func (d Direction) Valid() bool {
	return d == Up || d == Down
}

// ParseDirection converts the wire representation of a vote direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	default:
		return 0, fmt.Errorf("%w: direction must be \"up\" or \"down\"", ErrValidation)
	}
}

// VoteService applies vote intents to posts.
type VoteService struct {
	store  Store
	logger *zap.Logger
}

// NewVoteService creates a new vote service
func NewVoteService(store Store) *VoteService {
	return &VoteService{
		store:  store,
		logger: logging.GetLogger().With(zap.String("component", "votes")),
	}
}

// Cast applies a vote by voterID on postID and returns the post with its
// updated score.
//
// The whole transition runs in one transaction with the post row locked, so
// concurrent votes on the same post serialize and the score never loses an
// update. The transitions are:
//
//	no existing vote        -> insert row, points += value
//	same value as existing  -> no-op
//	opposite value          -> update row, points += 2*value
func (s *VoteService) Cast(ctx context.Context, postID, voterID int64, dir Direction) (*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "votes.cast")
	defer span.End()

	if voterID == 0 {
		return nil, ErrUnauthorized
	}
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: invalid vote direction %d", ErrValidation, dir)
	}

	value := int64(dir)
	var result *models.Post

	err := s.store.Atomically(ctx, func(tx Store) error {
		post, err := tx.GetPostForUpdate(ctx, postID)
		if err != nil {
			return storeErr("votes.load_post", err)
		}
		if post == nil {
			return ErrNotFound
		}

		existing, err := tx.GetVote(ctx, VoteKey{PostID: postID, UserID: voterID})
		if err != nil {
			return storeErr("votes.load_vote", err)
		}

		var swing int64
		switch {
		case existing == nil:
			vote := &models.Vote{PostID: postID, UserID: voterID, Value: value}
			if err := tx.CreateVote(ctx, vote); err != nil {
				return storeErr("votes.insert", err)
			}
			swing = value
		case existing.Value == value:
			// Re-submitting the same direction must not double-count.
			result = post
			return nil
		default:
			existing.Value = value
			if err := tx.UpdateVote(ctx, existing); err != nil {
				return storeErr("votes.flip", err)
			}
			// The swing removes the old contribution and adds the new
			// one; the stored value was the opposite sign.
			swing = 2 * value
		}

		post.Points += swing
		if err := tx.UpdatePost(ctx, post); err != nil {
			return storeErr("votes.apply_points", err)
		}
		result = post
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrConflict) {
			s.logger.Error("vote transaction failed",
				zap.Int64("post_id", postID),
				zap.Int64("voter_id", voterID),
				zap.Error(err))
		}
		return nil, err
	}
	return result, nil
}
