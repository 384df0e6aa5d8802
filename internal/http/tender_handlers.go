package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayamekni/AfriOffres/internal/domain"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type tenderListResp struct {
	Tenders    []domain.Tender `json:"tenders"`
	Pagination pagination      `json:"pagination"`
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}
	return n, true
}

func parsePage(c *gin.Context) (domain.Page, bool) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return domain.Page{}, false
	}
	limit, ok := queryInt(c, "limit", defaultPageSize)
	if !ok {
		return domain.Page{}, false
	}
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	return domain.Page{Number: page, Size: limit}, true
}

// ListTenders godoc
// @Summary List tenders
// @Tags tenders
// @Produce json
// @Param page query int false "page (1-based)" default(1)
// @Param limit query int false "page size" default(10)
// @Param search query string false "case-insensitive text in title, description or organization"
// @Param country query string false "exact country"
// @Param category query string false "exact category"
// @Param status query string false "exact status"
// @Success 200 {object} tenderListResp
// @Failure 400 {object} map[string]string
// @Router /api/tenders [get]
func (h *Handler) ListTenders(c *gin.Context) {
	p, ok := parsePage(c)
	if !ok {
		return
	}
	f := domain.TenderFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Country:  c.Query("country"),
		Category: c.Query("category"),
		Status:   c.Query("status"),
	}
	items, total, err := h.Tenders.ListTenders(c.Request.Context(), f, p)
	if err != nil {
		h.internalError(c, "list tenders", err)
		return
	}
	if items == nil {
		items = []domain.Tender{}
	}
	c.JSON(http.StatusOK, tenderListResp{
		Tenders: items,
		Pagination: pagination{
			Page: p.Number, Limit: p.Size, Total: total, Pages: p.Pages(total),
		},
	})
}

// GetTender godoc
// @Summary Tender by id
// @Tags tenders
// @Produce json
// @Param id path string true "tender id"
// @Success 200 {object} domain.Tender
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/tenders/{id} [get]
func (h *Handler) GetTender(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid tender id")
		return
	}
	t, err := h.Tenders.FindTenderByID(c.Request.Context(), id)
	if isNotFound(err) {
		errorJSON(c, http.StatusNotFound, "Tender not found")
		return
	}
	if err != nil {
		h.internalError(c, "get tender", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) distinct(c *gin.Context, field, key string) {
	vals, err := h.Tenders.DistinctTenderValues(c.Request.Context(), field)
	if err != nil {
		h.internalError(c, "distinct "+field, err)
		return
	}
	if vals == nil {
		vals = []string{}
	}
	c.JSON(http.StatusOK, gin.H{key: vals})
}

// Categories godoc
// @Summary Distinct tender categories
// @Tags tenders
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/tenders/categories [get]
func (h *Handler) Categories(c *gin.Context) { h.distinct(c, "category", "categories") }

// Countries godoc
// @Summary Distinct tender countries
// @Tags tenders
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/tenders/countries [get]
func (h *Handler) Countries(c *gin.Context) { h.distinct(c, "country", "countries") }
