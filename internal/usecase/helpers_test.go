package usecase_test

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/storage"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/storage/storagetest"
	"github.com/akumakusss123/DBT-Antivirus/internal/usecase"
	"github.com/akumakusss123/DBT-Antivirus/pkg/config"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// env wires the use cases over a fresh sqlite database
type env struct {
	db         *storage.DB
	clock      *clock
	writer     *usecase.ResultWriter
	aggregator *usecase.Aggregator
	query      *usecase.QueryService
	users      *repository.UserRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := storagetest.New(t)
	logger := zap.NewNop()
	svc := config.DefaultConfig().Service
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}

	aggregator := usecase.NewAggregator(repository.NewStatisticsRepository(db), svc, 10*time.Second, nil, logger)
	writer := usecase.NewResultWriter(repository.NewResultRepository(db), aggregator, logger,
		usecase.WithClock(c.Now), usecase.WithWriteTimeout(10*time.Second))

	return &env{
		db:         db,
		clock:      c,
		writer:     writer,
		aggregator: aggregator,
		query:      usecase.NewQueryService(repository.NewQueryRepository(db), svc, 10*time.Second, nil, logger),
		users:      repository.NewUserRepository(db),
	}
}

func (e *env) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := e.db.Get(&n, `SELECT COUNT(*) FROM `+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func fileOf(content string) entities.FileMetadata {
	sum := sha256.Sum256([]byte(content))
	return entities.FileMetadata{
		Name:        content + ".bin",
		Fingerprint: hex.EncodeToString(sum[:]),
		Size:        int64(len(content)),
		MimeType:    "application/octet-stream",
	}
}

func trojanX() entities.DetectionInput {
	return entities.DetectionInput{ThreatName: "Trojan.X", ThreatType: "trojan", Severity: 8, EngineName: "E1", Confidence: 0.9}
}

func infected(level int, detections ...entities.DetectionInput) entities.ScanFinding {
	return entities.ScanFinding{ThreatLevel: level, Detections: detections, DurationSeconds: 2}
}

func clean() entities.ScanFinding {
	return entities.ScanFinding{DurationSeconds: 1}
}
