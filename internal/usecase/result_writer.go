package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/metrics"
)

// UnsavedFindingError is returned for every failed write. It carries the
// caller's input unchanged so the finding can be retried or reported.
type UnsavedFindingError struct {
	File        entities.FileMetadata
	ScannerKind string
	Finding     entities.ScanFinding
	Err         error
}

func (e *UnsavedFindingError) Error() string {
	return fmt.Sprintf("scan result for %s from %s not saved: %v", e.File.Fingerprint, e.ScannerKind, e.Err)
}

func (e *UnsavedFindingError) Unwrap() error {
	return e.Err
}

// StatisticsRefresher recomputes one day's rollup
type StatisticsRefresher interface {
	RefreshDailyStatistics(ctx context.Context, date time.Time) (*entities.Statistics, error)
}

// ResultWriter persists scanner findings
type ResultWriter struct {
	repo      repository.ResultRepository
	refresher StatisticsRefresher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

// ResultWriterOption configures a ResultWriter
type ResultWriterOption func(*ResultWriter)

// WithClock replaces time.Now
func WithClock(now func() time.Time) ResultWriterOption {
	return func(w *ResultWriter) { w.now = now }
}

// WithWriteTimeout bounds each write once it is detached from the caller
func WithWriteTimeout(d time.Duration) ResultWriterOption {
	return func(w *ResultWriter) { w.timeout = d }
}

// WithMetrics records write outcomes
func WithMetrics(m *metrics.Metrics) ResultWriterOption {
	return func(w *ResultWriter) { w.metrics = m }
}

// NewResultWriter creates a new result writer. refresher may be nil.
func NewResultWriter(repo repository.ResultRepository, refresher StatisticsRefresher, logger *zap.Logger, opts ...ResultWriterOption) *ResultWriter {
	w := &ResultWriter{
		repo:      repo,
		refresher: refresher,
		logger:    logger.Named("result_writer"),
		timeout:   30 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RecordScanResult validates the finding and stores the file, scan, threats
// and detections in one transaction. The scan's day is refreshed after commit.
func (w *ResultWriter) RecordScanResult(ctx context.Context, file entities.FileMetadata, scannerKind string, finding entities.ScanFinding) (entities.ScanRecordID, error) {
	start := time.Now()

	id, startedAt, err := w.record(ctx, file, scannerKind, finding)
	if err != nil {
		outcome := metrics.OutcomeFailed
		if errs.KindOf(err) == errs.KindConstraintViolation || errs.KindOf(err) == errs.KindNotFound {
			outcome = metrics.OutcomeRejected
		}
		w.metrics.ScanRecorded(scannerKind, outcome, time.Since(start))
		w.logger.Warn("scan result not saved",
			zap.String("fingerprint", file.Fingerprint),
			zap.String("scanner", scannerKind),
			zap.String("kind", string(errs.KindOf(err))),
			zap.Error(err))
		return 0, &UnsavedFindingError{File: file, ScannerKind: scannerKind, Finding: finding, Err: err}
	}

	outcome := metrics.OutcomeClean
	if !finding.Clean() {
		outcome = metrics.OutcomeInfected
	}
	w.metrics.ScanRecorded(scannerKind, outcome, time.Since(start))
	w.logger.Debug("scan result saved",
		zap.Int64("scan_id", int64(id)),
		zap.String("scanner", scannerKind),
		zap.Int("threat_level", finding.ThreatLevel),
		zap.Int("detections", len(finding.Detections)))

	w.refresh(ctx, startedAt)
	return id, nil
}

func (w *ResultWriter) record(ctx context.Context, file entities.FileMetadata, scannerKind string, finding entities.ScanFinding) (entities.ScanRecordID, time.Time, error) {
	const op = "record scan"

	meta := file
	if err := meta.Validate(); err != nil {
		return 0, time.Time{}, err
	}
	if scannerKind == "" || len(scannerKind) > 30 {
		return 0, time.Time{}, errs.Constraint(op, "scanner kind must be 1-30 characters")
	}
	if err := finding.Validate(); err != nil {
		return 0, time.Time{}, err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()

	now := w.now().UTC()
	startedAt := now.Add(-time.Duration(finding.DurationSeconds * float64(time.Second)))

	var id entities.ScanRecordID
	err := w.repo.WithinTx(ctx, func(tx repository.ResultTx) error {
		if meta.UploadedBy != nil {
			ok, err := tx.UploaderExists(ctx, *meta.UploadedBy)
			if err != nil {
				return err
			}
			if !ok {
				return errs.NotFound(op, "uploader %d does not exist", *meta.UploadedBy)
			}
		}

		fileID, err := tx.ResolveFile(ctx, meta, uuid.NewString(), now)
		if err != nil {
			return err
		}

		completedAt := now
		id, err = tx.InsertScan(ctx, &entities.Scan{
			FileID:         fileID,
			ScanType:       scannerKind,
			Status:         entities.ScanStatusCompleted,
			ThreatLevel:    finding.ThreatLevel,
			DetectionCount: len(finding.Detections),
			ScanDuration:   finding.DurationSeconds,
			StartedAt:      startedAt,
			CompletedAt:    &completedAt,
		})
		if err != nil {
			return err
		}

		for _, d := range finding.Detections {
			threatID, _, err := tx.UpsertThreat(ctx, d, now)
			if err != nil {
				return err
			}
			w.metrics.ThreatUpserted()

			name := d.DetectionName
			if name == "" {
				name = d.ThreatName
			}
			if err := tx.InsertDetection(ctx, &entities.Detection{
				ScanID:        int64(id),
				ThreatID:      threatID,
				EngineName:    d.EngineName,
				DetectionName: name,
				Confidence:    d.Confidence,
				Details:       d.Details,
				CreatedAt:     now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	return id, startedAt, nil
}

// refresh failures leave the rollup stale until the scheduler's next pass;
// the scan itself is already committed
func (w *ResultWriter) refresh(ctx context.Context, day time.Time) {
	if w.refresher == nil {
		return
	}
	if _, err := w.refresher.RefreshDailyStatistics(ctx, day); err != nil {
		w.logger.Warn("statistics refresh after write failed",
			zap.String("date", day.Format(entities.DateLayout)),
			zap.Error(err))
	}
}
