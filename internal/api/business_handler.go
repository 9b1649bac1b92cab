package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"DirectorySync/internal/adapter/places"
	"DirectorySync/internal/interfaces"
	"DirectorySync/internal/model"
	"DirectorySync/internal/repository"
	"DirectorySync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BusinessHandler 商家查询接口
type BusinessHandler struct {
	queryService  *service.QueryService
	enrichService *service.EnrichmentService
	logger        *logrus.Logger
}

// NewBusinessHandler 创建 BusinessHandler
func NewBusinessHandler(queryService *service.QueryService, enrichService *service.EnrichmentService, logger *logrus.Logger) *BusinessHandler {
	return &BusinessHandler{
		queryService:  queryService,
		enrichService: enrichService,
		logger:        logger,
	}
}

type listBusinessesRequest struct {
	Q          string   `form:"q" binding:"max=200"`
	CategoryID *uint64  `form:"category_id" binding:"omitempty,min=1"`
	Region     string   `form:"region" binding:"omitempty,len=2,alpha"`
	City       string   `form:"city" binding:"max=128"`
	MinRating  *float64 `form:"min_rating" binding:"omitempty,gte=0,lte=5"`
	PriceTier  *int     `form:"price_tier" binding:"omitempty,gte=0,lte=4"`
	Sort       string   `form:"sort"`
	Page       int      `form:"page" binding:"omitempty,min=1"`
	PageSize   string   `form:"page_size"` // 数字或 all
}

// ListBusinesses 商家列表（本地 + 外部混合）
// GET /api/businesses?q=leak+repair&city=Austin&region=TX&min_rating=4&sort=rating&page=1&page_size=20
func (h *BusinessHandler) ListBusinesses(c *gin.Context) {
	var req listBusinessesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sortOrder, ok := model.ParseSortOrder(req.Sort)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be one of default, rating, reviews, name, newest"})
		return
	}

	params := model.QueryParams{
		Term:       req.Q,
		CategoryID: req.CategoryID,
		Region:     req.Region,
		City:       req.City,
		MinRating:  req.MinRating,
		PriceTier:  req.PriceTier,
		Sort:       sortOrder,
		Page:       req.Page,
	}
	switch ps := strings.TrimSpace(req.PageSize); {
	case ps == "":
	case strings.EqualFold(ps, "all"):
		params.All = true
	default:
		n, err := strconv.Atoi(ps)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page_size must be a positive integer or 'all'"})
			return
		}
		params.PageSize = n
	}

	result, err := h.queryService.Query(c.Request.Context(), params)
	if err != nil {
		h.logger.WithError(err).Error("ListBusinesses failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetBusiness 商家详情
// GET /api/businesses/:slug
func (h *BusinessHandler) GetBusiness(c *gin.Context) {
	slug := c.Param("slug")
	view, err := h.queryService.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "business not found"})
			return
		}
		h.logger.WithError(err).WithField("slug", slug).Error("GetBusiness failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetEnrichment 按外部 ID 读取富化数据（走缓存）
// GET /api/enrichment/:external_id
func (h *BusinessHandler) GetEnrichment(c *gin.Context) {
	externalID := c.Param("external_id")
	e, err := h.enrichService.Get(c.Request.Context(), externalID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, e)
	case errors.Is(err, places.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "place not found"})
	case errors.Is(err, interfaces.ErrProviderUnavailable):
		h.logger.WithError(err).WithField("external_id", externalID).Warn("富化数据暂不可用")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "provider unavailable"})
	default:
		h.logger.WithError(err).WithField("external_id", externalID).Error("GetEnrichment failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "provider error"})
	}
}

// ListCategories 分类列表
// GET /api/categories
func (h *BusinessHandler) ListCategories(c *gin.Context) {
	list, err := h.queryService.ListCategories(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("ListCategories failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}
