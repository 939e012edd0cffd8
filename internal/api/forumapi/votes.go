package forumapi

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/threadline/threadline/internal/forum"
	"github.com/threadline/threadline/internal/identity"
	"github.com/threadline/threadline/pkg/logging"
)

// VotesAPI provides vote-related API methods
type VotesAPI struct {
	votes  *forum.VoteService
	logger *zap.Logger
}

// NewVotesAPI creates a new votes API
func NewVotesAPI(votes *forum.VoteService) *VotesAPI {
	return &VotesAPI{
		votes:  votes,
		logger: logging.GetLogger().With(zap.String("component", "votes-api")),
	}
}

// CastVote handles forum_api.cast_vote
func (a *VotesAPI) CastVote(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		PostID    int64  `json:"post_id"`
		Direction string `json:"direction"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", forum.ErrValidation, err)
	}

	dir, err := forum.ParseDirection(p.Direction)
	if err != nil {
		return failureResponse(err), nil
	}

	ctx := c.Request.Context()
	voterID, _ := identity.UserID(ctx)

	post, err := a.votes.Cast(ctx, p.PostID, voterID, dir)
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
	return successResponse("Vote recorded.", view), nil
}
