package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/quillfeed/quillfeed/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Gorm exposes the underlying connection for query building and transactions
func (r *Repository) Gorm() *gorm.DB {
	return r.db
}

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsernameOrEmail retrieves a user matching either field
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, email).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FollowRepository provides follow-edge database operations
type FollowRepository struct {
	*Repository
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(repo *Repository) *FollowRepository {
	return &FollowRepository{Repository: repo}
}

// Get retrieves the follow edge for an ordered (follower, followee) pair,
// active or not
func (r *FollowRepository) Get(ctx context.Context, followerID, userID int64) (*models.Follow, error) {
	var follow models.Follow
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND user_id = ?", followerID, userID).
		First(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &follow, nil
}

// GetActive retrieves the active follow edge for an ordered pair
func (r *FollowRepository) GetActive(ctx context.Context, followerID, userID int64) (*models.Follow, error) {
	var follow models.Follow
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND user_id = ? AND is_active = ?", followerID, userID, true).
		First(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &follow, nil
}

// Create creates a new follow edge
func (r *FollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	return r.db.WithContext(ctx).Create(follow).Error
}

// Save persists changes to a follow edge
func (r *FollowRepository) Save(ctx context.Context, follow *models.Follow) error {
	return r.db.WithContext(ctx).Save(follow).Error
}

// PostRepository provides post, relationship and like database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Exists reports whether a post with the given ID exists
func (r *PostRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save persists changes to a post
func (r *PostRepository) Save(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

// GetRelationship retrieves the relationship row for a (user, post) pair,
// owner or repost
func (r *PostRepository) GetRelationship(ctx context.Context, userID, postID int64) (*models.PostRelationship, error) {
	var rel models.PostRelationship
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&rel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rel, nil
}

// IsOwner reports whether the user holds the owning relationship for the post
func (r *PostRepository) IsOwner(ctx context.Context, userID, postID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PostRelationship{}).
		Where("user_id = ? AND post_id = ? AND is_owner = ?", userID, postID, true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsPublishedAndOwnedBy reports whether the post is published and its owning
// relationship belongs to the given username
func (r *PostRepository) IsPublishedAndOwnedBy(ctx context.Context, postID int64, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PostRelationship{}).
		Joins("JOIN quill_users ON quill_users.id = quill_post_relationships.user_id").
		Joins("JOIN quill_posts ON quill_posts.id = quill_post_relationships.post_id").
		Where("quill_post_relationships.post_id = ?", postID).
		Where("quill_users.username = ?", username).
		Where("quill_post_relationships.is_owner = ?", true).
		Where("quill_posts.is_published = ?", true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLike retrieves the like row for a (user, post) pair, active or not
func (r *PostRepository) GetLike(ctx context.Context, userID, postID int64) (*models.Like, error) {
	var like models.Like
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &like, nil
}

// GetLikeOnPublished retrieves the like row for a (user, post) pair where
// the post is still published
func (r *PostRepository) GetLikeOnPublished(ctx context.Context, userID, postID int64) (*models.Like, error) {
	var like models.Like
	if err := r.db.WithContext(ctx).
		Joins("JOIN quill_posts ON quill_posts.id = quill_post_likes.post_id").
		Where("quill_post_likes.user_id = ? AND quill_post_likes.post_id = ?", userID, postID).
		Where("quill_posts.is_published = ?", true).
		First(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &like, nil
}

// SaveLike persists changes to a like row
func (r *PostRepository) SaveLike(ctx context.Context, like *models.Like) error {
	return r.db.WithContext(ctx).Save(like).Error
}

// CreateLike creates a new like row
func (r *PostRepository) CreateLike(ctx context.Context, like *models.Like) error {
	return r.db.WithContext(ctx).Create(like).Error
}
