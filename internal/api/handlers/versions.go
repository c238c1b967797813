package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/api/middleware"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/db/models"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/index"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/services"
	"go.uber.org/zap"
)

type VersionHandler struct {
	reports *services.ReportService
	index   *index.Index
	logger  *zap.Logger
}

func NewVersionHandler(reports *services.ReportService, ix *index.Index, logger *zap.Logger) *VersionHandler {
	return &VersionHandler{
		reports: reports,
		index:   ix,
		logger:  logger.With(zap.String("handler", "versions")),
	}
}

type versionResponse struct {
	ID            string `json:"id"`
	ReportID      string `json:"reportId"`
	TransactionID string `json:"transactionId"`
	ContentDigest string `json:"contentDigest"`
	Kind          string `json:"kind"`
	CreatedAt     string `json:"createdAt"`
	Text          string `json:"text,omitempty"`
}

func toVersionResponse(version *models.Version, text string) versionResponse {
	return versionResponse{
		ID:            version.ID,
		ReportID:      version.ReportID,
		TransactionID: version.TransactionID,
		ContentDigest: version.ContentDigest,
		Kind:          string(version.Kind),
		CreatedAt:     version.CreatedAt.UTC().Format(time.RFC3339),
		Text:          text,
	}
}

// GetVersion serves a single historical version with its content resolved
// through the ledger.
func (vh *VersionHandler) GetVersion(c *gin.Context) {
	result, err := vh.reports.ReadVersion(c.Request.Context(), middleware.Principal(c), c.Param("id"), c.Param("transactionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVersionResponse(&result.Version, result.Text))
}

func (vh *VersionHandler) ListVersions(c *gin.Context) {
	page, err := vh.index.ListVersions(c.Request.Context(), c.Param("id"), pageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]versionResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, toVersionResponse(&page.Items[i], ""))
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      items,
		"totalCount": page.TotalCount,
		"page":       page.PageNumber,
		"limit":      page.Limit,
	})
}
