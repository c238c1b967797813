package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/content"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/db/models"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/errs"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/index"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/ledger"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReportService orchestrates the anchoring protocol: content goes to the
// blob store, the digest is anchored on the ledger, and only then does the
// index learn about the new version. It holds no state between requests;
// the ledger serializes conflicting submissions per document and the index
// writes are idempotent per transaction id.
type ReportService struct {
	index   *index.Index
	gateway ledger.Gateway
	store   content.Store
	logger  *zap.Logger
	metrics *metrics.MetricsCollector
}

func NewReportService(ix *index.Index, gateway ledger.Gateway, store content.Store, logger *zap.Logger, collector *metrics.MetricsCollector) *ReportService {
	return &ReportService{
		index:   ix,
		gateway: gateway,
		store:   store,
		logger:  logger.With(zap.String("service", "report_service")),
		metrics: collector,
	}
}

// ReportWithText is a report plus its content, attached transiently for the
// immediate response. Text is never persisted in the index.
type ReportWithText struct {
	models.Report
	Text string `json:"text"`
}

// VersionWithText is a version plus the content it anchored.
type VersionWithText struct {
	models.Version
	Text string `json:"text"`
}

type contentPayload struct {
	Text string `json:"text"`
}

// Create runs the create-document protocol: reserve an index row, store the
// content, anchor its digest, finalize the index. A failure before anchoring
// leaves only the invisible reserved row (and possibly an orphaned blob,
// which is harmless in a content-addressed store); a failure after anchoring
// is the divergence state and is reported with the orphaned transaction id.
func (rs *ReportService) Create(ctx context.Context, principal *models.User, text string, reportType models.ReportType) (*ReportWithText, error) {
	if text == "" {
		return nil, errs.New(errs.KindValidation, "text is required")
	}
	if !models.ValidReportType(reportType) {
		return nil, errs.New(errs.KindValidation, "unknown report type")
	}

	start := time.Now()

	report, err := rs.index.CreateReport(ctx, principal.ID, reportType)
	if err != nil {
		return nil, errs.Wrap(errs.KindIndexFailed, "failed to reserve report", err)
	}

	digest, err := rs.storeText(ctx, text)
	if err != nil {
		return nil, err
	}

	anchor, err := rs.gateway.SubmitCreate(ctx, principal.Passport, report.ID, digest)
	if err != nil {
		return nil, mapLedgerError("failed to anchor creation", err)
	}
	if anchor.ConfirmedDigest != digest {
		return nil, errs.New(errs.KindLedgerFailed, "ledger confirmed a different digest than submitted")
	}

	report, err = rs.index.FinalizeCreation(ctx, report.ID, anchor.TransactionID, anchor.ConfirmedDigest)
	if err != nil {
		return nil, errs.IndexFailed(anchor.TransactionID, err)
	}

	rs.metrics.IncrementCounter("reports_created", map[string]string{"type": string(reportType)})
	rs.metrics.ObserveLatency("report_create", time.Since(start))
	rs.logger.Info("Report created",
		zap.String("report_id", report.ID),
		zap.String("transaction_id", anchor.TransactionID),
		zap.String("type", string(reportType)))

	return &ReportWithText{Report: *report, Text: text}, nil
}

// Update runs the symmetric update protocol against an existing report.
func (rs *ReportService) Update(ctx context.Context, principal *models.User, reportID, text string) (*VersionWithText, error) {
	if text == "" {
		return nil, errs.New(errs.KindValidation, "text is required")
	}

	start := time.Now()

	report, err := rs.getReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	digest, err := rs.storeText(ctx, text)
	if err != nil {
		return nil, err
	}

	anchor, err := rs.gateway.SubmitUpdate(ctx, principal.Passport, report.ID, digest)
	if err != nil {
		return nil, mapLedgerError("failed to anchor update", err)
	}
	if anchor.ConfirmedDigest != digest {
		return nil, errs.New(errs.KindLedgerFailed, "ledger confirmed a different digest than submitted")
	}

	version, err := rs.index.RecordUpdate(ctx, report.ID, anchor.TransactionID, anchor.ConfirmedDigest)
	if err != nil {
		return nil, errs.IndexFailed(anchor.TransactionID, err)
	}

	rs.metrics.IncrementCounter("reports_updated", nil)
	rs.metrics.ObserveLatency("report_update", time.Since(start))
	rs.logger.Info("Report updated",
		zap.String("report_id", report.ID),
		zap.String("transaction_id", anchor.TransactionID))

	return &VersionWithText{Version: *version, Text: text}, nil
}

// Read serves the report's current text. The canonical digest always comes
// from the ledger; the digest cached on the report row is only compared for
// the warning log, never trusted.
func (rs *ReportService) Read(ctx context.Context, principal *models.User, reportID string) (*ReportWithText, error) {
	report, err := rs.getReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.VersionsCount == 0 {
		return nil, errs.New(errs.KindNotFound, "There is no such report.")
	}

	version, err := rs.getVersion(ctx, report.ID, report.TransactionID)
	if err != nil {
		return nil, err
	}

	text, err := rs.readVersionText(ctx, principal, version, report.ContentDigest)
	if err != nil {
		return nil, err
	}
	return &ReportWithText{Report: *report, Text: text}, nil
}

// ReadInitial serves the text the report was created with, regardless of
// any updates since.
func (rs *ReportService) ReadInitial(ctx context.Context, principal *models.User, reportID string) (*ReportWithText, error) {
	report, err := rs.getReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.VersionsCount == 0 {
		return nil, errs.New(errs.KindNotFound, "There is no such report.")
	}

	digest, err := rs.gateway.ResolveCreationContent(ctx, principal.Passport, report.ID)
	if err != nil {
		return nil, mapLedgerError("failed to resolve creation content", err)
	}

	text, err := rs.fetchText(ctx, digest)
	if err != nil {
		return nil, err
	}
	return &ReportWithText{Report: *report, Text: text}, nil
}

// ReadVersion serves one historical version's text, resolved through the
// transaction kind that anchored it.
func (rs *ReportService) ReadVersion(ctx context.Context, principal *models.User, reportID, transactionID string) (*VersionWithText, error) {
	version, err := rs.getVersion(ctx, reportID, transactionID)
	if err != nil {
		return nil, err
	}

	text, err := rs.readVersionText(ctx, principal, version, version.ContentDigest)
	if err != nil {
		return nil, err
	}
	return &VersionWithText{Version: *version, Text: text}, nil
}

func (rs *ReportService) readVersionText(ctx context.Context, principal *models.User, version *models.Version, cachedDigest string) (string, error) {
	var digest string
	var err error
	switch version.Kind {
	case models.KindInit:
		digest, err = rs.gateway.ResolveCreationContent(ctx, principal.Passport, version.ReportID)
	default:
		digest, err = rs.gateway.ResolveUpdateContent(ctx, principal.Passport, version.TransactionID)
	}
	if err != nil {
		return "", mapLedgerError("failed to resolve content digest", err)
	}

	if cachedDigest != "" && digest != cachedDigest {
		// The index is a cache; the ledger wins and the read proceeds.
		rs.logger.Warn("Index digest disagrees with ledger",
			zap.String("report_id", version.ReportID),
			zap.String("transaction_id", version.TransactionID),
			zap.String("index_digest", cachedDigest),
			zap.String("ledger_digest", digest))
	}

	return rs.fetchText(ctx, digest)
}

func (rs *ReportService) storeText(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(contentPayload{Text: text})
	if err != nil {
		return "", errs.Wrap(errs.KindValidation, "failed to encode content", err)
	}

	digest, err := rs.store.Put(ctx, payload)
	if err != nil {
		return "", errs.Wrap(errs.KindStoreFailed, "failed to store content", err)
	}

	rs.metrics.ObserveSize("content_size", float64(len(payload)))
	return digest, nil
}

func (rs *ReportService) fetchText(ctx context.Context, digest string) (string, error) {
	data, err := rs.store.Get(ctx, digest)
	if err != nil {
		return "", errs.Wrap(errs.KindStoreFailed, "failed to fetch content", err)
	}

	var payload contentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", errs.Wrap(errs.KindStoreFailed, "stored content is malformed", err)
	}
	return payload.Text, nil
}

func (rs *ReportService) getReport(ctx context.Context, reportID string) (*models.Report, error) {
	report, err := rs.index.GetReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.KindNotFound, "There is no such report.")
		}
		return nil, errs.Wrap(errs.KindIndexFailed, "failed to load report", err)
	}
	return report, nil
}

func (rs *ReportService) getVersion(ctx context.Context, reportID, transactionID string) (*models.Version, error) {
	version, err := rs.index.GetVersion(ctx, reportID, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.KindNotFound, "There is no such version.")
		}
		return nil, errs.Wrap(errs.KindIndexFailed, "failed to load version", err)
	}
	return version, nil
}
