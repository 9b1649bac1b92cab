package api

import (
	"errors"
	"net/http"
	"strings"

	"DirectorySync/internal/interfaces"
	"DirectorySync/internal/repository"
	"DirectorySync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SyncHandler struct {
	syncService *service.SyncService
	logger      *logrus.Logger
}

func NewSyncHandler(syncService *service.SyncService, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		logger:      logger,
	}
}

type syncRequest struct {
	Term       string  `json:"term" binding:"max=200"`
	Location   string  `json:"location"`
	CategoryID *uint64 `json:"category_id" binding:"omitempty,min=1"`
}

// Sync 手动触发一次外部搜索并同步入库
// @Summary 同步外部地点数据
// @Param body body syncRequest true "term 与 category_id 至少一个"
// @Success 200 {object} model.SyncStats
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/sync [post]
func (h *SyncHandler) Sync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Term) == "" && req.CategoryID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "term or category_id is required"})
		return
	}

	stats, err := h.syncService.SyncQuery(c.Request.Context(), req.Term, req.Location, req.CategoryID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		case errors.Is(err, interfaces.ErrProviderUnavailable):
			h.logger.WithError(err).Warn("手动同步失败：外部数据源不可用")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "provider unavailable"})
		default:
			h.logger.WithError(err).Error("手动同步失败")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, stats)
}
