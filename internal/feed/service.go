package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quillfeed/quillfeed/internal/auth"
	"github.com/quillfeed/quillfeed/internal/cache"
	"github.com/quillfeed/quillfeed/internal/db"
	"github.com/quillfeed/quillfeed/internal/models"
	"github.com/quillfeed/quillfeed/pkg/config"
	"github.com/quillfeed/quillfeed/pkg/logging"
	"github.com/quillfeed/quillfeed/pkg/telemetry"
)

// cursorTimeFormat is the wire format of the cached feed cursor
const cursorTimeFormat = time.RFC3339Nano

// User identifies an account referenced by a feed item
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Item is one entry of the home feed. User is whose activity surfaced the
// post (the reposting follower when a repost is newer than the original
// publication); Author is set to the original author only for items
// surfaced via a repost.
type Item struct {
	PostID       int64     `json:"post_id"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	User         User      `json:"user"`
	Author       *User     `json:"author,omitempty"`
	LikesCount   int64     `json:"likes_count"`
	RepostsCount int64     `json:"reposts_count"`
}

// Service assembles the per-viewer home feed from follow edges and post
// relationships, bounded by a TTL'd cursor cached per viewer. The cursor
// is a derived optimization, never a source of truth.
type Service struct {
	repo   *db.Repository
	cache  cache.Store
	cfg    config.FeedConfig
	logger *zap.Logger
}

// NewService creates a new feed service
func NewService(repo *db.Repository, store cache.Store, cfg config.FeedConfig) *Service {
	return &Service{
		repo:   repo,
		cache:  store,
		cfg:    cfg,
		logger: logging.WithComponent("feed"),
	}
}

// feedRow is one row of the surfacing query
type feedRow struct {
	PostID        int64     `gorm:"column:post_id"`
	Content       string    `gorm:"column:content"`
	LastCreatedAt time.Time `gorm:"column:last_created_at"`
	UserID        int64     `gorm:"column:user_id"`
	Username      string    `gorm:"column:username"`
	IsOwner       bool      `gorm:"column:is_owner"`
}

// countRow is one row of the batched count queries
type countRow struct {
	PostID int64 `gorm:"column:post_id"`
	Count  int64 `gorm:"column:cnt"`
}

// cursorKey is the per-viewer cache key holding the pagination boundary
func cursorKey(viewerID int64) string {
	return fmt.Sprintf("home:%d:last_post_at", viewerID)
}

// followeeSubquery selects the IDs of users the viewer actively follows.
// A fresh builder is returned per call site so the subquery can appear in
// several statements.
func (s *Service) followeeSubquery(ctx context.Context, viewerID int64) *gorm.DB {
	return s.repo.Gorm().WithContext(ctx).
		Model(&models.Follow{}).
		Select("user_id").
		Where("follower_id = ? AND is_active = ?", viewerID, true)
}

// Home returns the viewer's home feed: distinct published posts with any
// relationship activity from followed users, ordered by each post's most
// recent such activity (newest first, descending post id on ties),
// truncated to limit. A repost by a followed user bumps the post to the
// repost time. When a cached cursor exists, only activity strictly older
// than it is considered; a non-empty page moves the cursor to the page's
// oldest timestamp with the TTL reset, so repeated calls within the TTL
// walk backwards through the feed one page at a time.
func (s *Service) Home(ctx context.Context, viewer auth.Principal, limit int) ([]Item, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.home")
	defer span.End()

	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	gdb := s.repo.Gorm().WithContext(ctx)

	// Pass 1: per-post max activity timestamp over followed users' rows
	activity := gdb.
		Model(&models.PostRelationship{}).
		Select("quill_post_relationships.post_id AS post_id, " +
			"quill_posts.content AS content, " +
			"MAX(quill_post_relationships.created_at) AS last_created_at").
		Joins("JOIN quill_posts ON quill_posts.id = quill_post_relationships.post_id").
		Where("quill_post_relationships.user_id IN (?)", s.followeeSubquery(ctx, viewer.ID)).
		Where("quill_posts.is_published = ?", true).
		Group("quill_post_relationships.post_id, quill_posts.content")

	cursor, found, err := s.loadCursor(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	if found {
		activity = activity.Where("quill_post_relationships.created_at < ?", cursor)
	}

	// Pass 2: join back to pick the relationship row carrying each post's
	// max timestamp; that row's user is whose voice surfaces the post
	var rows []feedRow
	err = gdb.
		Table("(?) AS activity", activity).
		Select("activity.post_id, activity.content, quill_post_relationships.created_at AS last_created_at, "+
			"quill_users.id AS user_id, quill_users.username, quill_post_relationships.is_owner").
		Joins("JOIN quill_post_relationships ON quill_post_relationships.post_id = activity.post_id "+
			"AND quill_post_relationships.created_at = activity.last_created_at").
		Joins("JOIN quill_users ON quill_users.id = quill_post_relationships.user_id").
		Where("quill_post_relationships.user_id IN (?)", s.followeeSubquery(ctx, viewer.ID)).
		Order("activity.last_created_at DESC, activity.post_id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return []Item{}, nil
	}

	// The page's oldest timestamp becomes the boundary for the next page.
	// Only a non-empty page advances the cursor.
	if err := s.storeCursor(ctx, viewer.ID, rows[len(rows)-1].LastCreatedAt); err != nil {
		return nil, err
	}

	// Assemble keyed by post id. Identical timestamps can match two
	// relationship rows for one post; the first row in query order wins
	// and the page never repeats a post id.
	result := make(map[int64]*Item, len(rows))
	postIDs := make([]int64, 0, len(rows))
	repostIDs := make([]int64, 0)

	for _, row := range rows {
		if _, seen := result[row.PostID]; seen {
			continue
		}
		postIDs = append(postIDs, row.PostID)
		if !row.IsOwner {
			repostIDs = append(repostIDs, row.PostID)
		}
		result[row.PostID] = &Item{
			PostID:    row.PostID,
			Content:   row.Content,
			CreatedAt: row.LastCreatedAt,
			User:      User{ID: row.UserID, Username: row.Username},
		}
	}

	// Pass 3: original authors for repost-surfaced items
	if len(repostIDs) > 0 {
		type authorRow struct {
			PostID   int64  `gorm:"column:post_id"`
			UserID   int64  `gorm:"column:user_id"`
			Username string `gorm:"column:username"`
		}
		var authors []authorRow
		err = gdb.
			Model(&models.PostRelationship{}).
			Select("quill_post_relationships.post_id, quill_users.id AS user_id, quill_users.username").
			Joins("JOIN quill_users ON quill_users.id = quill_post_relationships.user_id").
			Where("quill_post_relationships.post_id IN ?", repostIDs).
			Where("quill_post_relationships.is_owner = ?", true).
			Scan(&authors).Error
		if err != nil {
			return nil, err
		}
		for _, a := range authors {
			if item, ok := result[a.PostID]; ok {
				item.Author = &User{ID: a.UserID, Username: a.Username}
			}
		}
	}

	// Pass 4: batched like counts for exactly the page's posts
	var likeCounts []countRow
	err = gdb.
		Model(&models.Like{}).
		Select("post_id, COUNT(*) AS cnt").
		Where("post_id IN ?", postIDs).
		Where("is_active = ?", true).
		Group("post_id").
		Scan(&likeCounts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range likeCounts {
		if item, ok := result[c.PostID]; ok {
			item.LikesCount = c.Count
		}
	}

	// Pass 5: batched repost counts (non-owner relationship rows)
	var repostCounts []countRow
	err = gdb.
		Model(&models.PostRelationship{}).
		Select("post_id, COUNT(*) AS cnt").
		Where("post_id IN ?", postIDs).
		Where("is_owner = ?", false).
		Group("post_id").
		Scan(&repostCounts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range repostCounts {
		if item, ok := result[c.PostID]; ok {
			item.RepostsCount = c.Count
		}
	}

	// Final ordering re-sorts on the computed activity timestamps rather
	// than trusting any intermediate iteration order
	items := make([]Item, 0, len(postIDs))
	for _, id := range postIDs {
		items = append(items, *result[id])
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].PostID > items[j].PostID
	})

	s.logger.Debug("home feed assembled",
		zap.Int64("viewer_id", viewer.ID),
		zap.Int("items", len(items)))

	return items, nil
}

// loadCursor reads the viewer's cached pagination boundary
func (s *Service) loadCursor(ctx context.Context, viewerID int64) (time.Time, bool, error) {
	raw, err := s.cache.Get(ctx, cursorKey(viewerID))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}

	t, err := time.Parse(cursorTimeFormat, raw)
	if err != nil {
		// A corrupt cursor is disposable state, not an error
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// storeCursor writes the viewer's pagination boundary with the TTL reset
func (s *Service) storeCursor(ctx context.Context, viewerID int64, boundary time.Time) error {
	return s.cache.Set(ctx, cursorKey(viewerID), boundary.UTC().Format(cursorTimeFormat), s.cfg.CursorTTL)
}
