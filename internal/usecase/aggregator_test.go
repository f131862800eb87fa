package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
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
	"github.com/akumakusss123/DBT-Antivirus/pkg/config"
)

type rawStatistics struct {
	Date         string  `db:"date"`
	TotalScans   int64   `db:"total_scans"`
	CleanFiles   int64   `db:"clean_files"`
	ThreatsFound int64   `db:"threats_found"`
	AvgScanTime  float64 `db:"avg_scan_time"`
	TopThreats   string  `db:"top_threats"`
}

func (e *env) rawStatistics(t *testing.T) []rawStatistics {
	t.Helper()
	var rows []rawStatistics
	require.NoError(t, e.db.Select(&rows, `
		SELECT CAST(date AS TEXT) AS date, total_scans, clean_files, threats_found, avg_scan_time, top_threats
		FROM statistics ORDER BY date`))
	return rows
}

func TestRefreshDailyStatistics_Idempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.writer.RecordScanResult(ctx, fileOf("a"), "clamav", clean())
	require.NoError(t, err)
	_, err = e.writer.RecordScanResult(ctx, fileOf("b"), "clamav", infected(7, trojanX()))
	require.NoError(t, err)

	day := e.clock.Now()
	first, err := e.aggregator.RefreshDailyStatistics(ctx, day)
	require.NoError(t, err)
	rowsAfterFirst := e.rawStatistics(t)

	second, err := e.aggregator.RefreshDailyStatistics(ctx, day)
	require.NoError(t, err)
	rowsAfterSecond := e.rawStatistics(t)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
	assert.Equal(t, rowsAfterFirst, rowsAfterSecond)

	require.Len(t, rowsAfterSecond, 1)
	assert.Equal(t, int64(2), first.TotalScans)
	assert.Equal(t, int64(1), first.CleanFiles)
	assert.Equal(t, int64(1), first.ThreatsFound)
	assert.Equal(t, 50.0, first.ThreatPercentage)
	assert.JSONEq(t, `[{"name":"Trojan.X","count":1}]`, rowsAfterSecond[0].TopThreats)
}

func TestRefreshDailyStatistics_OverwritesNeverAccumulates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.writer.RecordScanResult(ctx, fileOf("a"), "clamav", infected(2, trojanX()))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		stats, err := e.aggregator.RefreshDailyStatistics(ctx, e.clock.Now())
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.TotalScans)
		assert.Equal(t, int64(1), stats.ThreatsFound)
	}
}

func TestDashboardSnapshot_DivisionSafety(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.aggregator.RefreshDailyStatistics(ctx, e.clock.Now())
	require.NoError(t, err)

	snapshot, err := e.aggregator.GetDashboardSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Daily, 1)
	assert.Zero(t, snapshot.Daily[0].TotalScans)
	assert.Equal(t, 0.0, snapshot.Daily[0].ThreatPercentage)
	assert.Zero(t, snapshot.Threats.AvgSeverity)
	assert.Empty(t, snapshot.TopThreats)
}

func TestDashboardSnapshot_Composition(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for day := 0; day < 9; day++ {
		e.clock.Set(time.Date(2024, 1, 1+day, 12, 0, 0, 0, time.UTC))
		_, err := e.writer.RecordScanResult(ctx, fileOf("clean-"+string(rune('a'+day))), "clamav", clean())
		require.NoError(t, err)
		_, err = e.writer.RecordScanResult(ctx, fileOf("bad-"+string(rune('a'+day))), "clamav", infected(6, trojanX()))
		require.NoError(t, err)
	}
	_, err := e.writer.RecordScanResult(ctx, fileOf("worm"), "clamav", infected(3, entities.DetectionInput{
		ThreatName: "Worm.Y", Severity: 4, EngineName: "E2", Confidence: 0.5,
	}))
	require.NoError(t, err)

	snapshot, err := e.aggregator.GetDashboardSnapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(19), snapshot.Totals.TotalFiles)
	assert.Equal(t, int64(2), snapshot.Threats.TotalThreats)
	assert.Equal(t, 6.0, snapshot.Threats.AvgSeverity)
	assert.Equal(t, 8, snapshot.Threats.MaxSeverity)

	require.Len(t, snapshot.Daily, 7)
	assert.Equal(t, "2024-01-03", snapshot.Daily[0].Date)
	assert.Equal(t, "2024-01-09", snapshot.Daily[6].Date)
	assert.Equal(t, 50.0, snapshot.Daily[0].ThreatPercentage)
	assert.Equal(t, 66.67, snapshot.Daily[6].ThreatPercentage)

	require.Len(t, snapshot.TopThreats, 2)
	assert.Equal(t, "Trojan.X", snapshot.TopThreats[0].Name)
	assert.Equal(t, int64(9), snapshot.TopThreats[0].DetectionCount)
}

func TestDashboardSnapshot_PropagatesErrors(t *testing.T) {
	repo := new(mocks.MockStatisticsRepository)
	boom := errs.Unavailable("dashboard totals", errors.New("connection refused"))

	repo.On("DashboardTotals", mock.Anything).Return(entities.DashboardTotals{}, boom)
	repo.On("ThreatTotals", mock.Anything).Return(entities.ThreatTotals{}, nil).Maybe()
	repo.On("RecentStatistics", mock.Anything, 7).Return([]entities.Statistics{}, nil).Maybe()
	repo.On("TopThreats", mock.Anything, 10).Return([]entities.Threat{}, nil).Maybe()

	aggregator := usecase.NewAggregator(repo, config.DefaultConfig().Service, time.Second, nil, zap.NewNop())
	_, err := aggregator.GetDashboardSnapshot(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, errs.Retryable(err))
}

func TestGetStatistics_RejectsBadDate(t *testing.T) {
	e := newEnv(t)

	_, err := e.aggregator.GetStatistics(context.Background(), "01/02/2024")
	assert.Equal(t, errs.KindConstraintViolation, errs.KindOf(err))

	_, err = e.aggregator.GetStatistics(context.Background(), "2023-12-31")
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}
