package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"votebox/internal/service"
	"votebox/internal/token"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	voting service.VotingService
	tokens *token.Manager
}

func NewHandler(users service.UserService, voting service.VotingService, tokens *token.Manager) *Handler {
	return &Handler{
		users:  users,
		voting: voting,
		tokens: tokens,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	router.POST("/register", h.register)
	router.POST("/login", h.login)
	router.GET("/topics/", h.listTopics)
	router.GET("/topics/:id/result/", h.getResult)

	authed := router.Group("", h.authRequired())
	{
		authed.GET("/me", h.me)
		authed.POST("/topics/", h.createTopic)
		authed.POST("/topics/:id/session/", h.createSession)
		authed.POST("/topics/:id/vote/", h.castVote)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type registerRequest struct {
	CPF      string `json:"cpf"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

type createTopicRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type voteRequest struct {
	Choice string `json:"choice"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.CPF, req.Name, req.Password)
	if err != nil {
		var fieldErrs service.FieldErrors
		if errors.As(err, &fieldErrs) {
			c.JSON(http.StatusBadRequest, fieldErrs)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, userToResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.CPF, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	access, refresh, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": access, "refresh": refresh})
}

func (h *Handler) me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) listTopics(c *gin.Context) {
	topics, err := h.voting.ListTopics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]TopicResponse, len(topics))
	for i := range topics {
		resp[i] = topicToResponse(topics[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createTopic(c *gin.Context) {
	var req createTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	topic, err := h.voting.CreateTopic(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		var fieldErrs service.FieldErrors
		if errors.As(err, &fieldErrs) {
			c.JSON(http.StatusBadRequest, fieldErrs)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, topicToResponse(*topic))
}

func (h *Handler) createSession(c *gin.Context) {
	topicID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || topicID <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrTopicNotFound.Error()})
		return
	}

	// unparsable durations silently fall back to the default, never a 400
	duration, err := strconv.Atoi(c.DefaultQuery("duration_minutes", strconv.Itoa(service.DefaultSessionMinutes)))
	if err != nil {
		duration = service.DefaultSessionMinutes
	}

	session, err := h.voting.CreateSession(c.Request.Context(), topicID, duration)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTopicNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSessionAlreadyOpen):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{
		ID:        session.ID,
		Topic:     session.TopicID,
		StartTime: session.StartTime.Format(time.RFC3339),
		EndTime:   session.EndTime.Format(time.RFC3339),
	})
}

func (h *Handler) castVote(c *gin.Context) {
	topicID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || topicID <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrNoOpenSession.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// a malformed body degrades to an empty choice; the open-session and
	// duplicate-vote checks still run first, matching the documented order
	var req voteRequest
	_ = c.ShouldBindJSON(&req)

	vote, err := h.voting.CastVote(c.Request.Context(), topicID, userID, req.Choice)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoOpenSession):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyVoted), errors.Is(err, service.ErrInvalidChoice):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, VoteResponse{
		ID:        vote.ID,
		Choice:    string(vote.Choice),
		CreatedAt: vote.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) getResult(c *gin.Context) {
	topicID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || topicID <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrTopicNotFound.Error()})
		return
	}

	tally, err := h.voting.Results(c.Request.Context(), topicID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTopicNotFound), errors.Is(err, service.ErrNoSessions):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSessionStillOpen):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, ResultResponse{
		Total: tally.Total,
		Sim:   tally.Yes,
		Nao:   tally.No,
	})
}
