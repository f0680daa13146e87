package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quillfeed/quillfeed/internal/apperr"
)

type postRequest struct {
	Content string `json:"content" binding:"required,min=1,max=512"`
}

type postResponse struct {
	ID          int64  `json:"id"`
	Content     string `json:"content"`
	IsPublished bool   `json:"is_published"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// statusOK is the minimal acknowledgement for mutating actions
var statusOK = gin.H{"status": "ok"}

// postIDParam parses the :id path parameter
func postIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperr.NotFound("invalid blog post id"))
		return 0, false
	}
	return id, true
}

func (r *Router) createPost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation", "detail": err.Error()})
		return
	}

	post, err := r.content.Create(c.Request.Context(), principalFrom(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, postResponse{
		ID:          post.ID,
		Content:     post.Content,
		IsPublished: post.IsPublished,
		CreatedAt:   post.CreatedAt.Format(timeFormat),
		UpdatedAt:   post.UpdatedAt.Format(timeFormat),
	})
}

func (r *Router) updatePost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation", "detail": err.Error()})
		return
	}

	post, err := r.content.Update(c.Request.Context(), principalFrom(c), id, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, postResponse{
		ID:          post.ID,
		Content:     post.Content,
		IsPublished: post.IsPublished,
		CreatedAt:   post.CreatedAt.Format(timeFormat),
		UpdatedAt:   post.UpdatedAt.Format(timeFormat),
	})
}

func (r *Router) archivePost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := r.content.Archive(c.Request.Context(), principalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOK)
}

func (r *Router) deletePost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := r.content.Delete(c.Request.Context(), principalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOK)
}

func (r *Router) repost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := r.content.Repost(c.Request.Context(), principalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOK)
}

func (r *Router) deleteRepost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := r.content.DeleteRepost(c.Request.Context(), principalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOK)
}

func (r *Router) like(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	err := r.content.Like(c.Request.Context(), principalFrom(c), c.Param("username"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOK)
}

func (r *Router) unlike(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := r.content.Unlike(c.Request.Context(), principalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOK)
}
