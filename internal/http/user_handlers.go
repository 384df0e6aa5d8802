package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayamekni/AfriOffres/internal/domain"
)

const recommendationLimit = 5

func currentUID(c *gin.Context) primitive.ObjectID {
	v, _ := c.Get(uidKey)
	id, _ := v.(primitive.ObjectID)
	return id
}

func (h *Handler) loadCurrentUser(c *gin.Context) (*domain.User, bool) {
	u, err := h.Users.FindUserByID(c.Request.Context(), currentUID(c))
	if isNotFound(err) {
		errorJSON(c, http.StatusNotFound, "User not found")
		return nil, false
	}
	if err != nil {
		h.internalError(c, "find user", err)
		return nil, false
	}
	return u, true
}

// GetProfile godoc
// @Summary Current user's profile
// @Tags user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/user/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	u, ok := h.loadCurrentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, u)
}

// profileUpdate extracts the allow-listed fields from body. A field with the
// wrong JSON type is reported by name.
func profileUpdate(body map[string]any) (map[string]any, string) {
	set := map[string]any{}
	for _, f := range []string{"first_name", "last_name"} {
		if v, ok := body[f]; ok {
			s, isStr := v.(string)
			if !isStr {
				return nil, f
			}
			set[f] = strings.TrimSpace(s)
		}
	}
	if v, ok := body["preferences"]; ok {
		switch p := v.(type) {
		case map[string]any:
			set["preferences"] = p
		case nil:
			set["preferences"] = map[string]any{}
		default:
			return nil, "preferences"
		}
	}
	if v, ok := body["notifications_enabled"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return nil, "notifications_enabled"
		}
		set["notifications_enabled"] = b
	}
	return set, ""
}

// UpdateProfile godoc
// @Summary Update profile fields
// @Description Only first_name, last_name, preferences and notifications_enabled are applied.
// @Tags user
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body map[string]any true "fields"
// @Success 200 {object} domain.User
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/user/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid json")
		return
	}
	set, bad := profileUpdate(body)
	if bad != "" {
		errorJSON(c, http.StatusBadRequest, bad+" has an invalid type")
		return
	}
	if len(set) == 0 {
		errorJSON(c, http.StatusBadRequest, "No valid fields to update")
		return
	}

	u, err := h.Users.UpdateUserFields(c.Request.Context(), currentUID(c), set)
	if isNotFound(err) {
		errorJSON(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.internalError(c, "update profile", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Recommendations godoc
// @Summary Newest tenders matching the user's preferences
// @Tags user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string][]domain.Tender
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/user/recommendations [get]
func (h *Handler) Recommendations(c *gin.Context) {
	u, ok := h.loadCurrentUser(c)
	if !ok {
		return
	}
	items, err := h.Tenders.RecommendTenders(c.Request.Context(),
		u.Preferences.Categories(), u.Preferences.Countries(), recommendationLimit)
	if err != nil {
		h.internalError(c, "recommendations", err)
		return
	}
	if items == nil {
		items = []domain.Tender{}
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": items})
}
