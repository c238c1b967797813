package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/api/middleware"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/db/models"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/index"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserHandler struct {
	index  *index.Index
	logger *zap.Logger
}

func NewUserHandler(ix *index.Index, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		index:  ix,
		logger: logger.With(zap.String("handler", "users")),
	}
}

type userResponse struct {
	ID           string `json:"id"`
	Passport     string `json:"passport,omitempty"`
	Role         string `json:"role"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	ReportsCount int    `json:"reportsCount"`
	CreatedAt    string `json:"createdAt"`
}

func toUserResponse(user *models.User, includePassport bool) userResponse {
	resp := userResponse{
		ID:           user.ID,
		Role:         string(user.Role),
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		ReportsCount: user.ReportsCount,
		CreatedAt:    user.CreatedAt.UTC().Format(time.RFC3339),
	}
	if includePassport {
		resp.Passport = user.Passport
	}
	return resp
}

// Me answers with the acting principal's own record.
func (uh *UserHandler) Me(c *gin.Context) {
	principal := middleware.Principal(c)
	c.JSON(http.StatusOK, toUserResponse(principal, true))
}

func (uh *UserHandler) GetUser(c *gin.Context) {
	user, err := uh.index.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "There is no such user."})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user, false))
}

func (uh *UserHandler) SearchUsers(c *gin.Context) {
	page, err := uh.index.SearchUsers(c.Request.Context(), c.Query("query"), pageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]userResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, toUserResponse(&page.Items[i], false))
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      items,
		"totalCount": page.TotalCount,
		"page":       page.PageNumber,
		"limit":      page.Limit,
	})
}
