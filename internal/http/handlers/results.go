package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Results lists recently finished matches, newest first.
func (h *Handler) Results(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match history is not enabled"})
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	results, err := h.History.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Result returns the archived outcome of one match.
func (h *Handler) Result(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match history is not enabled"})
		return
	}

	res, err := h.History.GetByMatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if res == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no result for this game yet"})
		return
	}
	c.JSON(http.StatusOK, res)
}
