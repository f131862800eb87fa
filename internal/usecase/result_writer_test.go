package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
	"github.com/akumakusss123/DBT-Antivirus/internal/usecase"
	"github.com/akumakusss123/DBT-Antivirus/internal/usecase/mocks"
)

func TestRecordScanResult_IdempotentFileResolution(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	file := fileOf("same bytes")

	first, err := e.writer.RecordScanResult(ctx, file, "clamav", clean())
	require.NoError(t, err)

	file.Name = "another-name.bin"
	second, err := e.writer.RecordScanResult(ctx, file, "virustotal", clean())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, e.count(t, "files"))
	assert.Equal(t, 2, e.count(t, "scans"))

	stored, err := e.query.LookupFile(ctx, file.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, "same bytes.bin", stored.OriginalName)
	assert.Len(t, stored.StoredName, 36)
}

func TestRecordScanResult_ConcurrentThreatCounter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	const scans = 10
	var wg sync.WaitGroup
	errCh := make(chan error, scans)
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.writer.RecordScanResult(ctx, fileOf(fmt.Sprintf("sample-%d", i)), "clamav", infected(7, trojanX()))
			errCh <- err
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	threats, err := e.query.SearchThreats(ctx, "Trojan.X", 0, 0)
	require.NoError(t, err)
	require.Len(t, threats, 1)
	assert.Equal(t, int64(scans), threats[0].DetectionCount)
	assert.Equal(t, scans, e.count(t, "detections"))
}

func TestRecordScanResult_ConcurrentSameFingerprint(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	const scans = 20
	var wg sync.WaitGroup
	errCh := make(chan error, scans)
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.writer.RecordScanResult(ctx, fileOf("same"), "clamav", infected(7, trojanX()))
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	assert.Equal(t, 1, e.count(t, "files"))
	assert.Equal(t, scans, e.count(t, "scans"))

	threats, err := e.query.SearchThreats(ctx, "Trojan.X", 0, 0)
	require.NoError(t, err)
	require.Len(t, threats, 1)
	assert.Equal(t, int64(scans), threats[0].DetectionCount)

	stats, err := e.aggregator.GetStatistics(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(scans), stats.TotalScans)
	assert.Equal(t, int64(scans), stats.ThreatsFound)
	assert.Equal(t, []entities.TopThreat{{Name: "Trojan.X", Count: scans}}, stats.TopThreats)
}

func TestRecordScanResult_RangeEnforcement(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*entities.DetectionInput)
		finding func() entities.ScanFinding
	}{
		{name: "confidence 1.5", mutate: func(d *entities.DetectionInput) { d.Confidence = 1.5 }},
		{name: "confidence NaN", mutate: func(d *entities.DetectionInput) { d.Confidence = math.NaN() }},
		{name: "severity 0", mutate: func(d *entities.DetectionInput) { d.Severity = 0 }},
		{name: "severity 11", mutate: func(d *entities.DetectionInput) { d.Severity = 11 }},
		{name: "empty threat name", mutate: func(d *entities.DetectionInput) { d.ThreatName = "" }},
		{name: "empty engine", mutate: func(d *entities.DetectionInput) { d.EngineName = "" }},
		{name: "threat level 11", finding: func() entities.ScanFinding { return infected(11) }},
		{name: "negative duration", finding: func() entities.ScanFinding {
			return entities.ScanFinding{DurationSeconds: -1}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)

			var finding entities.ScanFinding
			if tt.finding != nil {
				finding = tt.finding()
			} else {
				good := trojanX()
				bad := trojanX()
				bad.ThreatName = "Other"
				tt.mutate(&bad)
				finding = infected(7, good, bad)
			}

			_, err := e.writer.RecordScanResult(context.Background(), fileOf("x"), "clamav", finding)
			require.Error(t, err)
			assert.Equal(t, errs.KindConstraintViolation, errs.KindOf(err))
			assert.False(t, errs.Retryable(err))

			for _, table := range []string{"files", "scans", "threats", "detections", "statistics"} {
				assert.Zero(t, e.count(t, table), table)
			}
		})
	}
}

func TestRecordScanResult_InvalidFileMetadata(t *testing.T) {
	e := newEnv(t)

	bad := fileOf("x")
	bad.Size = 0
	_, err := e.writer.RecordScanResult(context.Background(), bad, "clamav", clean())
	assert.Equal(t, errs.KindConstraintViolation, errs.KindOf(err))

	bad = fileOf("x")
	bad.Fingerprint = "ABC"
	_, err = e.writer.RecordScanResult(context.Background(), bad, "clamav", clean())
	assert.Equal(t, errs.KindConstraintViolation, errs.KindOf(err))

	_, err = e.writer.RecordScanResult(context.Background(), fileOf("x"), "", clean())
	assert.Equal(t, errs.KindConstraintViolation, errs.KindOf(err))
}

func TestRecordScanResult_UnknownUploader(t *testing.T) {
	e := newEnv(t)

	file := fileOf("x")
	missing := int64(42)
	file.UploadedBy = &missing

	_, err := e.writer.RecordScanResult(context.Background(), file, "clamav", infected(3, trojanX()))
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	assert.Zero(t, e.count(t, "files"))
	assert.Zero(t, e.count(t, "threats"))

	user, err := e.users.Ensure(context.Background(), &entities.User{Username: "alice"})
	require.NoError(t, err)
	file.UploadedBy = &user.ID
	_, err = e.writer.RecordScanResult(context.Background(), file, "clamav", infected(3, trojanX()))
	require.NoError(t, err)

	history, err := e.query.GetHistory(context.Background(), 1, 0, entities.HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, "alice", history[0].Uploader)
}

func TestRecordScanResult_UnsavedFindingCarriesInput(t *testing.T) {
	e := newEnv(t)

	file := fileOf("x")
	finding := infected(12, trojanX())

	_, err := e.writer.RecordScanResult(context.Background(), file, "clamav", finding)

	var unsaved *usecase.UnsavedFindingError
	require.True(t, errors.As(err, &unsaved))
	assert.Equal(t, file, unsaved.File)
	assert.Equal(t, "clamav", unsaved.ScannerKind)
	assert.Equal(t, finding, unsaved.Finding)
	assert.ErrorIs(t, err, errs.ErrConstraintViolation)
}

func TestRecordScanResult_StorageFailuresAreRetryable(t *testing.T) {
	for _, cause := range []error{
		errs.Unavailable("begin", errors.New("database is locked")),
		errs.Timeout("commit", context.DeadlineExceeded),
	} {
		repo := new(mocks.MockResultRepository)
		repo.On("WithinTx", mock.Anything).Return(cause)

		writer := usecase.NewResultWriter(repo, nil, zap.NewNop())
		_, err := writer.RecordScanResult(context.Background(), fileOf("x"), "clamav", clean())

		var unsaved *usecase.UnsavedFindingError
		require.ErrorAs(t, err, &unsaved)
		assert.True(t, errs.Retryable(err))
		repo.AssertExpectations(t)
	}
}

func TestRecordScanResult_DetachedFromCallerCancellation(t *testing.T) {
	e := newEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.writer.RecordScanResult(ctx, fileOf("x"), "clamav", infected(5, trojanX()))
	require.NoError(t, err)
	assert.Equal(t, 1, e.count(t, "scans"))
	assert.Equal(t, 1, e.count(t, "detections"))
}

func TestRecordScanResult_TimesAndRefresh(t *testing.T) {
	e := newEnv(t)
	now := time.Date(2024, 2, 1, 0, 0, 1, 0, time.UTC)
	e.clock.Set(now)

	// a 2 second scan finishing just after midnight started the previous day
	_, err := e.writer.RecordScanResult(context.Background(), fileOf("x"), "clamav", infected(4, trojanX()))
	require.NoError(t, err)

	history, err := e.query.GetHistory(context.Background(), 1, 0, entities.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, now.Add(-2*time.Second).Equal(history[0].StartedAt))
	require.NotNil(t, history[0].CompletedAt)
	assert.True(t, now.Equal(*history[0].CompletedAt))
	assert.Equal(t, entities.ScanStatusCompleted, history[0].Status)

	stats, err := e.aggregator.GetStatistics(context.Background(), "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ThreatsFound)
}

func TestEndToEndScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	file := fileOf("H1 content")
	_, err := e.writer.RecordScanResult(ctx, file, "clamav", entities.ScanFinding{
		ThreatLevel: 7,
		Detections:  []entities.DetectionInput{{ThreatName: "Trojan.X", Severity: 8, EngineName: "E1", Confidence: 0.9}},
	})
	require.NoError(t, err)

	history, err := e.query.GetHistory(ctx, 1, 0, entities.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 7, history[0].ThreatLevel)
	assert.Equal(t, []string{"Trojan.X"}, history[0].Detections)
	assert.Equal(t, file.Fingerprint, history[0].FileHash)

	threats, err := e.query.SearchThreats(ctx, "troj", 0, 0)
	require.NoError(t, err)
	require.Len(t, threats, 1)
	assert.Equal(t, "Trojan.X", threats[0].Name)
	assert.Equal(t, int64(1), threats[0].DetectionCount)
}
