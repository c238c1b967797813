// Package index owns the queryable side of the system: Report and Version
// rows plus the denormalized counters on User. It is a cache over the ledger,
// never the source of truth for content digests.
package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/db/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Page is the envelope every list query answers with. PageNumber is 1-based;
// a page past the end yields empty Items and the unchanged TotalCount.
type Page[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	PageNumber int   `json:"page"`
	Limit      int   `json:"limit"`
}

// PageRequest carries the common list-query parameters. Order applies to
// createdAt and is either "asc" or "desc".
type PageRequest struct {
	Page  int
	Limit int
	Order string
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

func (p PageRequest) normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Order != "asc" {
		p.Order = "desc"
	}
	return p
}

func (p PageRequest) orderClause() string {
	return "created_at " + p.Order
}

type Index struct {
	db     *gorm.DB
	logger *zap.Logger
}

func New(db *gorm.DB, logger *zap.Logger) *Index {
	return &Index{
		db:     db,
		logger: logger.With(zap.String("service", "index")),
	}
}

// --- users ---

func (ix *Index) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return ix.db.WithContext(ctx).Create(user).Error
}

// DeleteUser removes a principal row again. Used only to unwind a sign-up
// whose ledger onboarding failed.
func (ix *Index) DeleteUser(ctx context.Context, id string) error {
	return ix.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}

func (ix *Index) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := ix.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (ix *Index) FindUserByPassport(ctx context.Context, passport string) (*models.User, error) {
	var user models.User
	if err := ix.db.WithContext(ctx).First(&user, "passport = ?", passport).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (ix *Index) PassportTaken(ctx context.Context, passport string) (bool, error) {
	var count int64
	err := ix.db.WithContext(ctx).Model(&models.User{}).
		Where("passport = ?", passport).
		Count(&count).Error
	return count > 0, err
}

// SearchUsers matches the query as a case-insensitive contains-predicate
// over first and last name.
func (ix *Index) SearchUsers(ctx context.Context, query string, req PageRequest) (*Page[models.User], error) {
	req = req.normalize()
	pattern := "%" + strings.ToLower(query) + "%"

	base := ix.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", pattern, pattern)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	if err := base.Order(req.orderClause()).
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&users).Error; err != nil {
		return nil, err
	}

	return &Page[models.User]{Items: users, TotalCount: total, PageNumber: req.Page, Limit: req.Limit}, nil
}

// --- reports ---

// CreateReport reserves a report row before any content exists. The row has
// VersionsCount 0 and is invisible to list queries until finalized.
func (ix *Index) CreateReport(ctx context.Context, authorID string, reportType models.ReportType) (*models.Report, error) {
	report := &models.Report{
		ID:       uuid.New().String(),
		AuthorID: authorID,
		Type:     reportType,
	}
	if err := ix.db.WithContext(ctx).Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

// FinalizeCreation commits the four effects of a successful creation in one
// transaction: report pointer fields, VersionsCount = 1, the init version
// row, and the author's ReportsCount. Replaying the same transactionID is a
// no-op that returns the already-finalized report.
func (ix *Index) FinalizeCreation(ctx context.Context, reportID, transactionID, digest string) (*models.Report, error) {
	var report models.Report
	err := ix.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&report, "id = ?", reportID).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Version{}).
			Where("transaction_id = ?", transactionID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		version := &models.Version{
			ID:            uuid.New().String(),
			ReportID:      reportID,
			TransactionID: transactionID,
			ContentDigest: digest,
			Kind:          models.KindInit,
		}
		if err := tx.Create(version).Error; err != nil {
			return err
		}

		if err := tx.Model(&report).Updates(map[string]interface{}{
			"transaction_id": transactionID,
			"content_digest": digest,
			"versions_count": 1,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("id = ?", report.AuthorID).
			UpdateColumn("reports_count", gorm.Expr("reports_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	if err := ix.db.WithContext(ctx).First(&report, "id = ?", reportID).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// RecordUpdate appends an update version and moves the report's pointer
// fields, atomically. It is idempotent per transactionID: replaying an
// already-indexed transaction returns the existing version untouched.
func (ix *Index) RecordUpdate(ctx context.Context, reportID, transactionID, digest string) (*models.Version, error) {
	var version models.Version
	err := ix.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&version, "transaction_id = ?", transactionID).Error
		if err == nil {
			if version.ReportID != reportID {
				return fmt.Errorf("transaction %s is already recorded for report %s", transactionID, version.ReportID)
			}
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		var report models.Report
		if err := tx.First(&report, "id = ?", reportID).Error; err != nil {
			return err
		}

		version = models.Version{
			ID:            uuid.New().String(),
			ReportID:      reportID,
			TransactionID: transactionID,
			ContentDigest: digest,
			Kind:          models.KindUpdate,
		}
		if err := tx.Create(&version).Error; err != nil {
			return err
		}

		return tx.Model(&report).Updates(map[string]interface{}{
			"transaction_id": transactionID,
			"content_digest": digest,
			"versions_count": gorm.Expr("versions_count + 1"),
			"updated_at":     time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (ix *Index) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := ix.db.WithContext(ctx).Preload("Author").First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// ListReports matches the query as a case-insensitive contains-predicate
// over the report's current transaction id. Reserved rows with no anchored
// version yet are excluded.
func (ix *Index) ListReports(ctx context.Context, query string, req PageRequest) (*Page[models.Report], error) {
	pattern := "%" + strings.ToLower(query) + "%"
	return ix.pageReports(ctx, req, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("LOWER(transaction_id) LIKE ?", pattern)
	})
}

func (ix *Index) ListReportsByAuthor(ctx context.Context, authorID string, req PageRequest) (*Page[models.Report], error) {
	return ix.pageReports(ctx, req, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("author_id = ?", authorID)
	})
}

func (ix *Index) pageReports(ctx context.Context, req PageRequest, filter func(*gorm.DB) *gorm.DB) (*Page[models.Report], error) {
	req = req.normalize()

	base := filter(ix.db.WithContext(ctx).Model(&models.Report{})).
		Where("versions_count >= 1")

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var reports []models.Report
	if err := base.Preload("Author").
		Order(req.orderClause()).
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&reports).Error; err != nil {
		return nil, err
	}

	return &Page[models.Report]{Items: reports, TotalCount: total, PageNumber: req.Page, Limit: req.Limit}, nil
}

// --- versions ---

func (ix *Index) GetVersion(ctx context.Context, reportID, transactionID string) (*models.Version, error) {
	var version models.Version
	err := ix.db.WithContext(ctx).
		First(&version, "report_id = ? AND transaction_id = ?", reportID, transactionID).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (ix *Index) ListVersions(ctx context.Context, reportID string, req PageRequest) (*Page[models.Version], error) {
	req = req.normalize()

	base := ix.db.WithContext(ctx).Model(&models.Version{}).
		Where("report_id = ?", reportID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var versions []models.Version
	if err := base.Order(req.orderClause()).
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&versions).Error; err != nil {
		return nil, err
	}

	return &Page[models.Version]{Items: versions, TotalCount: total, PageNumber: req.Page, Limit: req.Limit}, nil
}
