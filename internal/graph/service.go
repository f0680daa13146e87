package graph

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/quillfeed/quillfeed/internal/apperr"
	"github.com/quillfeed/quillfeed/internal/auth"
	"github.com/quillfeed/quillfeed/internal/db"
	"github.com/quillfeed/quillfeed/internal/models"
	"github.com/quillfeed/quillfeed/pkg/logging"
)

// Service manages the directed follow graph
type Service struct {
	users   *db.UserRepository
	follows *db.FollowRepository
	logger  *zap.Logger
}

// NewService creates a new graph service
func NewService(repo *db.Repository) *Service {
	return &Service{
		users:   db.NewUserRepository(repo),
		follows: db.NewFollowRepository(repo),
		logger:  logging.WithComponent("graph"),
	}
}

// Follow makes the actor follow the target user. Following yourself is a
// no-op. The edge is looked up first and upserted: an inactive edge is
// reactivated in place, an active edge is left untouched, otherwise a new
// row is inserted. Duplicate-key rejection is never relied on.
func (s *Service) Follow(ctx context.Context, actor auth.Principal, targetUsername string) error {
	if actor.Username == targetUsername {
		return nil
	}

	target, err := s.users.GetByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}
	if target == nil || !target.IsActive {
		return apperr.NotFound("invalid username")
	}

	edge, err := s.follows.Get(ctx, actor.ID, target.ID)
	if err != nil {
		return err
	}

	switch {
	case edge == nil:
		edge = &models.Follow{
			FollowerID: actor.ID,
			UserID:     target.ID,
			CreatedAt:  time.Now().UTC(),
			IsActive:   true,
		}
		if err := s.follows.Create(ctx, edge); err != nil {
			return err
		}
	case !edge.IsActive:
		edge.IsActive = true
		edge.CreatedAt = time.Now().UTC()
		if err := s.follows.Save(ctx, edge); err != nil {
			return err
		}
	}

	s.logger.Debug("follow",
		zap.String("follower", actor.Username),
		zap.String("followee", targetUsername))

	return nil
}

// Unfollow deactivates the actor's follow edge to the target user
func (s *Service) Unfollow(ctx context.Context, actor auth.Principal, targetUsername string) error {
	if actor.Username == targetUsername {
		return nil
	}

	target, err := s.users.GetByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}
	if target == nil || !target.IsActive {
		return apperr.NotFound("invalid username")
	}

	edge, err := s.follows.GetActive(ctx, actor.ID, target.ID)
	if err != nil {
		return err
	}
	if edge == nil {
		return apperr.NotFound("invalid username")
	}

	edge.IsActive = false
	return s.follows.Save(ctx, edge)
}
