package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ayamekni/AfriOffres/internal/domain"
	"github.com/ayamekni/AfriOffres/internal/log"
	"github.com/ayamekni/AfriOffres/internal/oauth"
	"github.com/ayamekni/AfriOffres/internal/queue"
	"github.com/ayamekni/AfriOffres/internal/repo"
	"github.com/ayamekni/AfriOffres/internal/security"
)

type TenderStore interface {
	ListTenders(ctx context.Context, f domain.TenderFilter, p domain.Page) ([]domain.Tender, int64, error)
	FindTenderByID(ctx context.Context, id primitive.ObjectID) (*domain.Tender, error)
	DistinctTenderValues(ctx context.Context, field string) ([]string, error)
	RecommendTenders(ctx context.Context, categories, countries []string, limit int) ([]domain.Tender, error)
}

type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUserFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*domain.User, error)
	UpsertExternalUser(ctx context.Context, provider, subject, email, firstName, lastName string) (*domain.User, bool, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// GoogleAuth is the slice of the Google OAuth client the handlers use.
type GoogleAuth interface {
	MakeState(raw string) string
	VerifyState(state string) bool
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.GoogleUser, error)
}

type Handler struct {
	Tenders  TenderStore
	Users    UserStore
	DB       Pinger
	Events   queue.Publisher
	Exchange string
	Google   GoogleAuth // nil disables Google sign-in
	Limiter  Limiter

	JWTSecret       string
	TokenTTL        time.Duration
	RateLimitPerMin int

	Log *zap.Logger
}

// NewHandler wires a handler over a single store implementing every
// persistence interface. Optional collaborators are set on the result.
func NewHandler(store interface {
	TenderStore
	UserStore
	Pinger
}, jwtSecret string, lg *zap.Logger) *Handler {
	if lg == nil {
		lg = log.L()
	}
	return &Handler{
		Tenders:   store,
		Users:     store,
		DB:        store,
		Events:    queue.NewNoop(),
		Exchange:  queue.DefaultExchange,
		Limiter:   NewMemoryLimiter(),
		JWTSecret: jwtSecret,
		TokenTTL:  security.DefaultTokenTTL,
		Log:       lg,
	}
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// internalError logs err against the request and answers 500 with its text.
func (h *Handler) internalError(c *gin.Context, op string, err error) {
	log.WithDD(c.Request.Context(), h.Log,
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("op", op),
	).Error("request failed", zap.Error(err))
	errorJSON(c, http.StatusInternalServerError, err.Error())
}

func isNotFound(err error) bool { return errors.Is(err, repo.ErrNotFound) }

// publish fires an event without holding the request open.
func (h *Handler) publish(c *gin.Context, key string, event any) {
	ctx := context.WithoutCancel(c.Request.Context())
	reqID := c.GetString(requestIDKey)
	go func() {
		if err := h.Events.Publish(ctx, h.Exchange, key, event, reqID); err != nil {
			h.Log.Warn("event publish failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

// Health godoc
// @Summary API liveness
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "message": "AfriOffres API is running"})
}

// Healthz godoc
// @Summary Readiness including the database
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.DB.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
