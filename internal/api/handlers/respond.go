package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/errs"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/index"
)

func respondError(c *gin.Context, err error) {
	var tagged *errs.Error
	if !errors.As(err, &tagged) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": tagged.Message, "kind": string(tagged.Kind)}
	if tagged.TransactionID != "" {
		body["transactionId"] = tagged.TransactionID
	}

	switch tagged.Kind {
	case errs.KindAuthentication:
		c.JSON(http.StatusUnauthorized, body)
	case errs.KindValidation:
		c.JSON(http.StatusBadRequest, body)
	case errs.KindNotFound:
		c.JSON(http.StatusNotFound, body)
	case errs.KindLedgerUnavailable:
		c.JSON(http.StatusServiceUnavailable, body)
	default:
		c.JSON(http.StatusBadGateway, body)
	}
}

func pageRequest(c *gin.Context) index.PageRequest {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return index.PageRequest{
		Page:  page,
		Limit: limit,
		Order: c.DefaultQuery("order", "desc"),
	}
}
