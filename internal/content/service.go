package content

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quillfeed/quillfeed/internal/apperr"
	"github.com/quillfeed/quillfeed/internal/auth"
	"github.com/quillfeed/quillfeed/internal/db"
	"github.com/quillfeed/quillfeed/internal/models"
	"github.com/quillfeed/quillfeed/pkg/config"
	"github.com/quillfeed/quillfeed/pkg/logging"
)

// Service manages posts, reposts and likes
type Service struct {
	repo   *db.Repository
	posts  *db.PostRepository
	cfg    config.ContentConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new content service
func NewService(repo *db.Repository, cfg config.ContentConfig) *Service {
	return &Service{
		repo:   repo,
		posts:  db.NewPostRepository(repo),
		cfg:    cfg,
		logger: logging.WithComponent("content"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a post and its owning relationship as one unit
func (s *Service) Create(ctx context.Context, actor auth.Principal, content string) (*models.Post, error) {
	now := s.now()
	post := &models.Post{
		Content:     content,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.repo.Gorm().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		rel := &models.PostRelationship{
			UserID:    actor.ID,
			PostID:    post.ID,
			CreatedAt: post.CreatedAt,
			IsOwner:   true,
		}
		return tx.Create(rel).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("post created",
		zap.Int64("post_id", post.ID),
		zap.String("author", actor.Username))

	return post, nil
}

// Update changes a post's content. Only the owner may update; unchanged
// content is a no-op; past the edit window the update is rejected. At
// exactly the window boundary the update still succeeds.
func (s *Service) Update(ctx context.Context, actor auth.Principal, postID int64, content string) (*models.Post, error) {
	owner, err := s.posts.IsOwner(ctx, actor.ID, postID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, apperr.Forbidden("invalid post relationship")
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFound("invalid blog post id")
	}

	if post.Content == content {
		return post, nil
	}

	updatedAt := s.now()
	if updatedAt.Sub(post.CreatedAt) > s.cfg.EditTimeLimit {
		return nil, apperr.Conflict("blog post cannot be updated")
	}

	post.Content = content
	post.UpdatedAt = updatedAt
	if err := s.posts.Save(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// Archive unpublishes a post. Idempotent: archiving an archived post
// leaves updated_at untouched.
func (s *Service) Archive(ctx context.Context, actor auth.Principal, postID int64) error {
	owner, err := s.posts.IsOwner(ctx, actor.ID, postID)
	if err != nil {
		return err
	}
	if !owner {
		return apperr.Forbidden("invalid post relationship")
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return apperr.NotFound("invalid blog post id")
	}

	if post.IsPublished {
		post.IsPublished = false
		post.UpdatedAt = s.now()
		return s.posts.Save(ctx, post)
	}

	return nil
}

// Delete hard-deletes a post along with its relationships and likes
func (s *Service) Delete(ctx context.Context, actor auth.Principal, postID int64) error {
	owner, err := s.posts.IsOwner(ctx, actor.ID, postID)
	if err != nil {
		return err
	}
	if !owner {
		return apperr.Forbidden("invalid post relationship")
	}

	return s.repo.Gorm().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostRelationship{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, postID).Error
	})
}

// Repost adds a non-owner relationship for the actor. Any existing
// relationship row, owner or repost, makes this a silent success.
func (s *Service) Repost(ctx context.Context, actor auth.Principal, postID int64) error {
	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("invalid blog post id")
	}

	rel, err := s.posts.GetRelationship(ctx, actor.ID, postID)
	if err != nil {
		return err
	}
	if rel != nil {
		return nil
	}

	return s.repo.Gorm().WithContext(ctx).Create(&models.PostRelationship{
		UserID:    actor.ID,
		PostID:    postID,
		CreatedAt: s.now(),
		IsOwner:   false,
	}).Error
}

// DeleteRepost removes the actor's repost. The owning relationship is not
// a repost and cannot be removed this way.
func (s *Service) DeleteRepost(ctx context.Context, actor auth.Principal, postID int64) error {
	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("invalid blog post id")
	}

	rel, err := s.posts.GetRelationship(ctx, actor.ID, postID)
	if err != nil {
		return err
	}
	if rel == nil {
		return apperr.NotFound("invalid post relationship")
	}
	if rel.IsOwner {
		return apperr.Forbidden("cannot delete this repost")
	}

	return s.repo.Gorm().WithContext(ctx).
		Where("user_id = ? AND post_id = ?", actor.ID, postID).
		Delete(&models.PostRelationship{}).Error
}

// Like records the actor's like on a published post owned by the target
// username. An inactive like is reactivated; an active one is a no-op.
func (s *Service) Like(ctx context.Context, actor auth.Principal, targetUsername string, postID int64) error {
	ok, err := s.posts.IsPublishedAndOwnedBy(ctx, postID, targetUsername)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("invalid post relationship")
	}

	like, err := s.posts.GetLike(ctx, actor.ID, postID)
	if err != nil {
		return err
	}

	switch {
	case like == nil:
		return s.posts.CreateLike(ctx, &models.Like{
			UserID:    actor.ID,
			PostID:    postID,
			CreatedAt: s.now(),
			IsActive:  true,
		})
	case !like.IsActive:
		like.IsActive = true
		like.CreatedAt = s.now()
		return s.posts.SaveLike(ctx, like)
	}

	return nil
}

// Unlike deactivates the actor's like on a still-published post. An
// already-inactive like is a no-op.
func (s *Service) Unlike(ctx context.Context, actor auth.Principal, postID int64) error {
	like, err := s.posts.GetLikeOnPublished(ctx, actor.ID, postID)
	if err != nil {
		return err
	}
	if like == nil {
		return apperr.NotFound("the blog post hasn't been liked")
	}

	if like.IsActive {
		like.IsActive = false
		like.CreatedAt = s.now()
		return s.posts.SaveLike(ctx, like)
	}

	return nil
}
