package usecase

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
	"github.com/akumakusss123/DBT-Antivirus/internal/fingerprint"
	"github.com/akumakusss123/DBT-Antivirus/internal/scanner"
	"github.com/akumakusss123/DBT-Antivirus/pkg/config"
)

// Recorder stores one finding
type Recorder interface {
	RecordScanResult(ctx context.Context, file entities.FileMetadata, scannerKind string, finding entities.ScanFinding) (entities.ScanRecordID, error)
}

// Upload is a file submitted for scanning
type Upload struct {
	Name       string
	MimeType   string
	UploadedBy *int64
	Body       io.Reader
}

// ScanOutcome is the result of one scanner against an upload
type ScanOutcome struct {
	Scanner string                `json:"scanner"`
	ScanID  entities.ScanRecordID `json:"scan_id,omitempty"`
	Finding entities.ScanFinding  `json:"finding"`
	Error   string                `json:"error,omitempty"`
}

// IntakeResult summarises a submitted upload
type IntakeResult struct {
	Fingerprint string        `json:"fingerprint"`
	Size        int64         `json:"size"`
	Scans       []ScanOutcome `json:"scans"`
}

// Intake spools uploads, runs every scanner and records the findings
type Intake struct {
	recorder Recorder
	scanners []scanner.Scanner
	cfg      config.IntakeConfig
	logger   *zap.Logger
}

// NewIntake creates a new intake pipeline
func NewIntake(recorder Recorder, scanners []scanner.Scanner, cfg config.IntakeConfig, logger *zap.Logger) *Intake {
	return &Intake{
		recorder: recorder,
		scanners: scanners,
		cfg:      cfg,
		logger:   logger.Named("intake"),
	}
}

// Submit fingerprints the upload and scans it with every registered scanner,
// at most cfg.Workers at a time. Per-scanner failures are reported in the
// outcomes; an error is returned only when nothing could be recorded.
func (in *Intake) Submit(ctx context.Context, upload Upload) (*IntakeResult, error) {
	const op = "intake"

	if len(in.scanners) == 0 {
		return nil, errs.Constraint(op, "no scanners registered")
	}

	spooled, err := fingerprint.Spool(upload.Body, in.cfg.TempDir, in.cfg.MaxFileSize)
	if err != nil {
		if errors.Is(err, fingerprint.ErrTooLarge) {
			return nil, errs.Constraint(op, "upload exceeds %d bytes", in.cfg.MaxFileSize)
		}
		return nil, err
	}
	defer func() {
		if err := spooled.Remove(); err != nil {
			in.logger.Warn("failed to remove spooled upload", zap.String("path", spooled.Path), zap.Error(err))
		}
	}()

	meta := entities.FileMetadata{
		Name:        upload.Name,
		Fingerprint: spooled.Fingerprint.String(),
		Size:        spooled.Size,
		MimeType:    upload.MimeType,
		UploadedBy:  upload.UploadedBy,
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	target := scanner.Target{
		Name:        meta.Name,
		Fingerprint: spooled.Fingerprint,
		Size:        spooled.Size,
		Open: func() (io.ReadCloser, error) {
			return spooled.Open()
		},
	}

	result := &IntakeResult{
		Fingerprint: meta.Fingerprint,
		Size:        meta.Size,
		Scans:       make([]ScanOutcome, len(in.scanners)),
	}

	var (
		mu       sync.Mutex
		firstErr error
		recorded int
	)

	g := new(errgroup.Group)
	if in.cfg.Workers > 0 {
		g.SetLimit(in.cfg.Workers)
	}
	for i, sc := range in.scanners {
		i, sc := i, sc
		g.Go(func() error {
			outcome := ScanOutcome{Scanner: sc.Kind()}
			id, err := in.scanOne(ctx, sc, target, meta, &outcome)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				outcome.Error = err.Error()
				if firstErr == nil {
					firstErr = err
				}
			} else {
				outcome.ScanID = id
				recorded++
			}
			result.Scans[i] = outcome
			return nil
		})
	}
	g.Wait()

	if recorded == 0 {
		return result, firstErr
	}
	return result, nil
}

func (in *Intake) scanOne(ctx context.Context, sc scanner.Scanner, target scanner.Target, meta entities.FileMetadata, outcome *ScanOutcome) (entities.ScanRecordID, error) {
	finding, err := sc.Scan(ctx, target)
	if err != nil {
		in.logger.Warn("scanner failed",
			zap.String("scanner", sc.Kind()),
			zap.String("fingerprint", meta.Fingerprint),
			zap.Error(err))
		return 0, err
	}
	outcome.Finding = finding

	return in.recorder.RecordScanResult(ctx, meta, sc.Kind(), finding)
}
