package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fwdgo/fwd-nagaoka/internal/models"
	"github.com/fwdgo/fwd-nagaoka/internal/repository"
)

type Handler struct {
	repo repository.DetailRepository
}

func NewHandler(repo repository.DetailRepository) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/disasters", h.getDisasters)
	r.GET("/health", h.health)
}

func (h *Handler) getDisasters(c *gin.Context) {
	filter := repository.Filter{
		Limit: 20, // Default to 20 disasters if limit param not supplied
	}

	if z := c.Query("zone"); z != "" {
		if zone, ok := parseZone(z); ok {
			filter.Zone = &zone
		}
	}
	if cat := c.Query("category"); cat != "" {
		if category, ok := parseCategory(cat); ok {
			filter.Category = &category
		}
	}
	if st := c.Query("status"); st != "" {
		if status, ok := parseStatus(st); ok {
			filter.Status = &status
		}
	}
	if s := c.Query("since"); s != "" {
		if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
			filter.Since = &t
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}

	records, err := h.repo.ListDisasters(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch disasters",
		})
		return
	}

	c.JSON(http.StatusOK, toDocuments(records))
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseZone(s string) (models.Zone, bool) {
	switch strings.ToUpper(s) {
	case "CURRENT":
		return models.ZoneCurrent, true
	case "PAST":
		return models.ZonePast, true
	default:
		return "", false
	}
}

func parseCategory(s string) (models.Category, bool) {
	switch strings.ToUpper(s) {
	case "FIRE":
		return models.CategoryFire, true
	case "RESCUE":
		return models.CategoryRescue, true
	case "ALERT":
		return models.CategoryAlert, true
	case "MEDICAL_SUPPORT":
		return models.CategoryMedicalSupport, true
	case "OTHER":
		return models.CategoryOther, true
	default:
		return "", false
	}
}

func parseStatus(s string) (models.Status, bool) {
	switch strings.ToUpper(s) {
	case "OPENED":
		return models.StatusOpened, true
	case "RESCUE_COMPLETE":
		return models.StatusRescueComplete, true
	case "NO_EXTINGUISH_NEEDED":
		return models.StatusNoExtinguishNeed, true
	case "CONTAINED":
		return models.StatusContained, true
	case "EXTINGUISHED":
		return models.StatusExtinguished, true
	case "CLOSED":
		return models.StatusClosed, true
	default:
		return "", false
	}
}
