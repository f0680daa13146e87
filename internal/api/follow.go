package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (r *Router) follow(c *gin.Context) {
	err := r.graph.Follow(c.Request.Context(), principalFrom(c), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOK)
}

func (r *Router) unfollow(c *gin.Context) {
	err := r.graph.Unfollow(c.Request.Context(), principalFrom(c), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOK)
}
