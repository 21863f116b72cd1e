package handlers

import (
	"net/http"
	"strconv"

	"promptmatch/internal/domain"
	"promptmatch/internal/game"
	"promptmatch/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type nameRequest struct {
	Name string `json:"name"`
}

type startRequest struct {
	Board   string           `json:"board"`
	Content game.ContentMode `json:"content"`
}

type sessionResponse struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Host     bool   `json:"host"`
	Token    string `json:"token"`
}

type boardResponse struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Tiles int    `json:"tiles"`
	Label string `json:"label"`
}

// Boards lists the board sizes and content modes a host can pick.
func (h *Handler) Boards(c *gin.Context) {
	boards := make([]boardResponse, 0, len(game.Boards))
	for _, b := range game.Boards {
		boards = append(boards, boardResponse{
			Name:  b.Name,
			Rows:  b.Rows,
			Cols:  b.Cols,
			Tiles: b.TileCount(),
			Label: b.Label,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"boards":        boards,
		"default_board": game.DefaultBoard,
		"content_modes": h.Decks.Modes(),
	})
}

func (h *Handler) CreateGame(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sess, err := h.Sessions.Create(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondSession(c, http.StatusCreated, sess)
}

func (h *Handler) JoinGame(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sess, err := h.Sessions.Join(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondSession(c, http.StatusOK, sess)
}

func (h *Handler) respondSession(c *gin.Context, status int, sess domain.Session) {
	token, err := h.Tokens.Issue(sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, sessionResponse{
		GameID:   sess.MatchID,
		PlayerID: sess.PlayerID,
		Name:     sess.Name,
		Host:     sess.Host,
		Token:    token,
	})
}

// GetGame returns the match as the caller sees it.
func (h *Handler) GetGame(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)
	state, err := h.Matches.State(c.Request.Context(), sess.MatchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.BuildView(state, sess.PlayerID))
}

func (h *Handler) StartGame(c *gin.Context) {
	h.deal(c, false)
}

func (h *Handler) RestartGame(c *gin.Context) {
	h.deal(c, true)
}

// deal builds a deck from the optional board/content body and starts or
// restarts the match with it.
func (h *Handler) deal(c *gin.Context, rematch bool) {
	sess, _ := middleware.SessionFrom(c)

	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}
	if req.Board == "" {
		req.Board = game.DefaultBoard
	}

	ctx := c.Request.Context()
	if err := h.Sessions.CheckHost(ctx, sess); err != nil {
		respondError(c, err)
		return
	}

	deck, err := h.Decks.NewDeck(req.Board, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	if rematch {
		err = h.Sessions.Restart(ctx, sess, deck)
	} else {
		err = h.Sessions.Start(ctx, sess, deck)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondState(c, sess)
}

func (h *Handler) LeaveGame(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)
	if err := h.Sessions.Leave(c.Request.Context(), sess); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"left": true})
}

func (h *Handler) SelectTile(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)
	tile, err := strconv.Atoi(c.Param("tile"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tile must be a number"})
		return
	}

	res, err := h.Matches.SelectTile(c.Request.Context(), sess, tile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accepted":           res.Accepted,
		"pending_evaluation": res.PendingEvaluation,
		"game":               domain.BuildView(res.State, sess.PlayerID),
	})
}

func (h *Handler) Evaluate(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)
	res, err := h.Matches.Evaluate(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accepted": res.Accepted,
		"outcome":  res.Outcome,
		"finished": res.Finished,
		"game":     domain.BuildView(res.State, sess.PlayerID),
	})
}

func (h *Handler) respondState(c *gin.Context, sess domain.Session) {
	state, err := h.Matches.State(c.Request.Context(), sess.MatchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.BuildView(state, sess.PlayerID))
}
