package repository_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
	domain "github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/storage"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/storage/storagetest"
)

var day = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func hashOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

type seeder struct {
	t    *testing.T
	repo *repository.ResultRepository
	n    int
}

// record stores one completed scan of content with the given detections
func (s *seeder) record(content string, level int, at time.Time, detections ...entities.DetectionInput) entities.ScanRecordID {
	s.t.Helper()
	s.n++

	var id entities.ScanRecordID
	err := s.repo.WithinTx(context.Background(), func(tx domain.ResultTx) error {
		fileID, err := tx.ResolveFile(context.Background(), entities.FileMetadata{
			Name:        content + ".bin",
			Fingerprint: hashOf(content),
			Size:        int64(len(content)),
			MimeType:    "application/octet-stream",
		}, fmt.Sprintf("stored-%d", s.n), at)
		if err != nil {
			return err
		}

		completed := at.Add(time.Second)
		scan := &entities.Scan{
			FileID:         fileID,
			ScanType:       "clamav",
			Status:         entities.ScanStatusCompleted,
			ThreatLevel:    level,
			DetectionCount: len(detections),
			ScanDuration:   1.5,
			StartedAt:      at,
			CompletedAt:    &completed,
		}
		if id, err = tx.InsertScan(context.Background(), scan); err != nil {
			return err
		}

		for _, d := range detections {
			threatID, _, err := tx.UpsertThreat(context.Background(), d, at)
			if err != nil {
				return err
			}
			if err := tx.InsertDetection(context.Background(), &entities.Detection{
				ScanID:        int64(id),
				ThreatID:      threatID,
				EngineName:    d.EngineName,
				DetectionName: d.ThreatName,
				Confidence:    d.Confidence,
				CreatedAt:     at,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(s.t, err)
	return id
}

func detection(name string) entities.DetectionInput {
	return entities.DetectionInput{ThreatName: name, ThreatType: "trojan", Severity: 8, EngineName: "clamav", Confidence: 0.9}
}

func TestResultTx_ResolveFileIsIdempotent(t *testing.T) {
	db := storagetest.New(t)
	repo := repository.NewResultRepository(db)
	ctx := context.Background()

	meta := entities.FileMetadata{Name: "a.exe", Fingerprint: hashOf("a"), Size: 1, MimeType: "application/x-msdownload"}

	var first, second int64
	require.NoError(t, repo.WithinTx(ctx, func(tx domain.ResultTx) (err error) {
		first, err = tx.ResolveFile(ctx, meta, "stored-1", day)
		return err
	}))
	meta.Name = "renamed.exe"
	require.NoError(t, repo.WithinTx(ctx, func(tx domain.ResultTx) (err error) {
		second, err = tx.ResolveFile(ctx, meta, "stored-2", day.Add(time.Hour))
		return err
	}))

	assert.Equal(t, first, second)

	f, err := repository.NewQueryRepository(db).FileByHash(ctx, meta.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, "a.exe", f.OriginalName)
	assert.Equal(t, "stored-1", f.StoredName)
	assert.True(t, day.Equal(f.UploadedAt))
}

func TestResultTx_RollbackLeavesNoRows(t *testing.T) {
	db := storagetest.New(t)
	repo := repository.NewResultRepository(db)
	ctx := context.Background()

	err := repo.WithinTx(ctx, func(tx domain.ResultTx) error {
		fileID, err := tx.ResolveFile(ctx, entities.FileMetadata{Name: "x", Fingerprint: hashOf("x"), Size: 1, MimeType: "text/plain"}, "s", day)
		require.NoError(t, err)
		_, err = tx.InsertScan(ctx, &entities.Scan{FileID: fileID, ScanType: "clamav", Status: entities.ScanStatusCompleted, ThreatLevel: 11, StartedAt: day})
		return err
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindConstraintViolation, errs.KindOf(err))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM files`))
	assert.Zero(t, n)
}

func TestResultTx_ConcurrentThreatUpserts(t *testing.T) {
	db := storagetest.New(t)
	repo := repository.NewResultRepository(db)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- repo.WithinTx(ctx, func(tx domain.ResultTx) error {
				_, _, err := tx.UpsertThreat(ctx, detection("Trojan.Gen"), day)
				return err
			})
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	threats, err := repository.NewQueryRepository(db).SearchThreats(ctx, "trojan", 10, 0)
	require.NoError(t, err)
	require.Len(t, threats, 1)
	assert.Equal(t, int64(writers), threats[0].DetectionCount)
	assert.Equal(t, 8, threats[0].Severity)
}

func TestResultTx_UpsertThreatKeepsLatestLastSeen(t *testing.T) {
	db := storagetest.New(t)
	repo := repository.NewResultRepository(db)
	ctx := context.Background()

	upsert := func(at time.Time) int64 {
		var count int64
		require.NoError(t, repo.WithinTx(ctx, func(tx domain.ResultTx) (err error) {
			_, count, err = tx.UpsertThreat(ctx, entities.DetectionInput{ThreatName: "W", Severity: 3, EngineName: "e", Confidence: 1}, at)
			return err
		}))
		return count
	}

	assert.Equal(t, int64(1), upsert(day.Add(2*time.Hour)))
	assert.Equal(t, int64(2), upsert(day))

	threats, err := repository.NewStatisticsRepository(db).TopThreats(ctx, 1)
	require.NoError(t, err)
	require.Len(t, threats, 1)
	assert.Equal(t, entities.DefaultThreatType, threats[0].Type)
	assert.True(t, day.Add(2*time.Hour).Equal(threats[0].LastSeen))
	assert.True(t, day.Add(2*time.Hour).Equal(threats[0].FirstSeen))
}

func TestStatistics_RefreshDay(t *testing.T) {
	db := storagetest.New(t)
	s := &seeder{t: t, repo: repository.NewResultRepository(db)}
	stats := repository.NewStatisticsRepository(db)
	ctx := context.Background()

	s.record("clean-1", 0, day.Add(time.Hour))
	s.record("clean-2", 0, day.Add(2*time.Hour))
	s.record("bad-1", 7, day.Add(3*time.Hour), detection("Trojan.A"))
	s.record("bad-2", 5, day.Add(4*time.Hour), detection("Trojan.A"), detection("Worm.B"))
	s.record("next-day", 9, day.Add(25*time.Hour), detection("Worm.B"))

	first, err := stats.RefreshDay(ctx, day.Add(12*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", first.Date)
	assert.Equal(t, int64(4), first.TotalScans)
	assert.Equal(t, int64(2), first.CleanFiles)
	assert.Equal(t, int64(2), first.ThreatsFound)
	assert.InDelta(t, 1.5, first.AvgScanTime, 1e-9)
	assert.Equal(t, 50.0, first.ThreatPercentage)
	assert.Equal(t, []entities.TopThreat{{Name: "Trojan.A", Count: 2}, {Name: "Worm.B", Count: 1}}, first.TopThreats)

	second, err := stats.RefreshDay(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stored, err := stats.GetStatistics(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, first, stored)
}

func TestStatistics_ConcurrentRefreshesConverge(t *testing.T) {
	db := storagetest.New(t)
	s := &seeder{t: t, repo: repository.NewResultRepository(db)}
	stats := repository.NewStatisticsRepository(db)
	ctx := context.Background()

	s.record("clean", 0, day.Add(time.Hour))
	s.record("bad", 6, day.Add(2*time.Hour), detection("Trojan.A"))

	const refreshes = 8
	var wg sync.WaitGroup
	errCh := make(chan error, refreshes)
	for i := 0; i < refreshes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := stats.RefreshDay(ctx, day)
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	stored, err := stats.GetStatistics(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.TotalScans)
	assert.Equal(t, int64(1), stored.ThreatsFound)
	assert.Equal(t, 50.0, stored.ThreatPercentage)
}

func TestStatistics_EmptyDay(t *testing.T) {
	db := storagetest.New(t)
	stats := repository.NewStatisticsRepository(db)

	empty, err := stats.RefreshDay(context.Background(), day)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalScans)
	assert.Zero(t, empty.ThreatPercentage)
	assert.Empty(t, empty.TopThreats)

	_, err = stats.GetStatistics(context.Background(), "1999-01-01")
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestStatistics_RecentAndTotals(t *testing.T) {
	db := storagetest.New(t)
	s := &seeder{t: t, repo: repository.NewResultRepository(db)}
	stats := repository.NewStatisticsRepository(db)
	ctx := context.Background()

	s.record("a", 0, day)
	s.record("b", 4, day.AddDate(0, 0, 1), detection("X"))
	s.record("c", 6, day.AddDate(0, 0, 2), entities.DetectionInput{ThreatName: "Y", Severity: 3, EngineName: "e", Confidence: 0.5})

	for i := 0; i < 3; i++ {
		_, err := stats.RefreshDay(ctx, day.AddDate(0, 0, i))
		require.NoError(t, err)
	}

	recent, err := stats.RecentStatistics(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2024-03-11", recent[0].Date)
	assert.Equal(t, "2024-03-12", recent[1].Date)

	totals, err := stats.DashboardTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), totals.TotalFiles)
	assert.Equal(t, int64(3), totals.TotalSize)

	threatTotals, err := stats.ThreatTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), threatTotals.TotalThreats)
	assert.Equal(t, 5.5, threatTotals.AvgSeverity)
	assert.Equal(t, 8, threatTotals.MaxSeverity)
}

func TestThreatPercentage(t *testing.T) {
	assert.Equal(t, 0.0, repository.ThreatPercentage(0, 0))
	assert.Equal(t, 33.33, repository.ThreatPercentage(1, 3))
	assert.Equal(t, 66.67, repository.ThreatPercentage(2, 3))
	assert.Equal(t, 100.0, repository.ThreatPercentage(4, 4))
}

func TestQuery_HistoryFilters(t *testing.T) {
	db := storagetest.New(t)
	s := &seeder{t: t, repo: repository.NewResultRepository(db)}
	query := repository.NewQueryRepository(db)
	ctx := context.Background()

	s.record("zero", 0, day.Add(time.Hour))
	s.record("three", 3, day.Add(2*time.Hour), detection("Adware.100%"))
	s.record("seven", 7, day.Add(3*time.Hour), detection("Trojan.Gen"), detection("Trojan.Gen.2"))

	all, err := query.History(ctx, 10, 0, entities.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "seven.bin", all[0].FileName)
	assert.Equal(t, []string{"Trojan.Gen", "Trojan.Gen.2"}, all[0].Detections)
	assert.Equal(t, []string{}, all[2].Detections)

	min := 3
	atLeast, err := query.History(ctx, 10, 0, entities.HistoryFilter{MinThreatLevel: &min})
	require.NoError(t, err)
	require.Len(t, atLeast, 2)
	assert.Equal(t, 7, atLeast[0].ThreatLevel)
	assert.Equal(t, 3, atLeast[1].ThreatLevel)

	from := day.Add(2 * time.Hour)
	recent, err := query.History(ctx, 10, 0, entities.HistoryFilter{DateFrom: &from})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	byName, err := query.History(ctx, 10, 0, entities.HistoryFilter{Text: "ZER"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "zero.bin", byName[0].FileName)

	byThreat, err := query.History(ctx, 10, 0, entities.HistoryFilter{Text: "trojan.gen"})
	require.NoError(t, err)
	require.Len(t, byThreat, 1)
	assert.Equal(t, "seven.bin", byThreat[0].FileName)

	literal, err := query.History(ctx, 10, 0, entities.HistoryFilter{Text: "100%"})
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "three.bin", literal[0].FileName)

	page, err := query.History(ctx, 1, 1, entities.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "three.bin", page[0].FileName)
}

func TestQuery_SearchThreatsEscapesWildcards(t *testing.T) {
	db := storagetest.New(t)
	s := &seeder{t: t, repo: repository.NewResultRepository(db)}
	query := repository.NewQueryRepository(db)
	ctx := context.Background()

	s.record("a", 5, day, detection("Win_32.Agent"))
	s.record("b", 5, day, detection("Win32.Agent"))
	s.record("c", 5, day, detection("Win32.Agent"))

	found, err := query.SearchThreats(ctx, "win_", 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Win_32.Agent", found[0].Name)

	ranked, err := query.SearchThreats(ctx, "agent", 10, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Win32.Agent", ranked[0].Name)

	second, err := query.SearchThreats(ctx, "agent", 1, 1)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Win_32.Agent", second[0].Name)

	none, err := query.SearchThreats(ctx, "nothing", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQuery_UnicodeCaseFolding(t *testing.T) {
	db := storagetest.New(t)
	s := &seeder{t: t, repo: repository.NewResultRepository(db)}
	query := repository.NewQueryRepository(db)
	ctx := context.Background()

	s.record("Отчёт", 9, day, detection("ТРОЯН.Вирус"))
	s.record("plain", 0, day.Add(time.Hour))

	for _, text := range []string{"троян", "ТРОЯН", "Троян.вирус"} {
		found, err := query.SearchThreats(ctx, text, 10, 0)
		require.NoError(t, err)
		require.Len(t, found, 1, text)
		assert.Equal(t, "ТРОЯН.Вирус", found[0].Name)

		history, err := query.History(ctx, 10, 0, entities.HistoryFilter{Text: text})
		require.NoError(t, err)
		require.Len(t, history, 1, text)
		assert.Equal(t, "Отчёт.bin", history[0].FileName)
	}

	byFile, err := query.History(ctx, 10, 0, entities.HistoryFilter{Text: "ОТЧЁТ"})
	require.NoError(t, err)
	require.Len(t, byFile, 1)
	assert.Equal(t, []string{"ТРОЯН.Вирус"}, byFile[0].Detections)
}

func TestQuery_FileByHashNotFound(t *testing.T) {
	db := storagetest.New(t)
	_, err := repository.NewQueryRepository(db).FileByHash(context.Background(), hashOf("missing"))
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestQuery_Views(t *testing.T) {
	db := storagetest.New(t)
	s := &seeder{t: t, repo: repository.NewResultRepository(db)}
	query := repository.NewQueryRepository(db)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	s.record("a", 0, day.Add(time.Hour))
	s.record("b", 6, day.Add(2*time.Hour), detection("T1"), detection("T2"))
	s.record("c", 6, day.Add(3*time.Hour), detection("T1"))

	rollups, err := query.DailyRollups(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rollups, 1)
	assert.Equal(t, entities.DailyRollup{
		Date: "2024-03-10", TotalScans: 3, CleanScans: 1, ThreatsFound: 2, AvgScanTime: 1.5, UniqueThreats: 2,
	}, rollups[0])

	daily, err := query.DailyThreats(ctx, "2024-03-10", 10)
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.Equal(t, "T1", daily[0].ThreatName)
	assert.Equal(t, int64(2), daily[0].Detections)

	other, err := query.DailyThreats(ctx, "2024-03-11", 10)
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = users.Ensure(ctx, &entities.User{Username: "idle"})
	require.NoError(t, err)
	activity, err := query.UserActivity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, "idle", activity[0].Username)
	assert.Zero(t, activity[0].ScansPerformed)
	assert.Nil(t, activity[0].LastScan)
}

func TestQuery_UserActivityWithUploads(t *testing.T) {
	db := storagetest.New(t)
	results := repository.NewResultRepository(db)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	u, err := users.Ensure(ctx, &entities.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	for i, at := range []time.Time{day, day.Add(time.Hour)} {
		require.NoError(t, results.WithinTx(ctx, func(tx domain.ResultTx) error {
			fileID, err := tx.ResolveFile(ctx, entities.FileMetadata{
				Name: "f", Fingerprint: hashOf("same"), Size: 10, MimeType: "text/plain", UploadedBy: &u.ID,
			}, fmt.Sprintf("s-%d", i), at)
			if err != nil {
				return err
			}
			_, err = tx.InsertScan(ctx, &entities.Scan{FileID: fileID, ScanType: "clamav", Status: entities.ScanStatusCompleted, StartedAt: at})
			return err
		}))
	}

	activity, err := repository.NewQueryRepository(db).UserActivity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, int64(1), activity[0].FilesUploaded)
	assert.Equal(t, int64(2), activity[0].ScansPerformed)
	assert.Equal(t, int64(10), activity[0].TotalSize)
	require.NotNil(t, activity[0].LastScan)
	assert.True(t, day.Add(time.Hour).Equal(*activity[0].LastScan))
}

func TestUser_Ensure(t *testing.T) {
	db := storagetest.New(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	admin, err := users.Ensure(ctx, &entities.User{Username: "admin", Role: entities.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, entities.RoleAdmin, admin.Role)
	assert.Equal(t, int64(repository.DefaultMaxFileSize), admin.MaxFileSize)
	assert.Empty(t, admin.Email)

	again, err := users.Ensure(ctx, &entities.User{Username: "admin", Role: entities.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)
	assert.Equal(t, entities.RoleAdmin, again.Role)

	byID, err := users.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", byID.Username)

	_, err = users.GetByUsername(ctx, "nobody")
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	_, err = users.Ensure(ctx, &entities.User{Username: "x", Role: "root"})
	assert.Equal(t, errs.KindConstraintViolation, errs.KindOf(err))
}

func TestRetention_PurgeBefore(t *testing.T) {
	db := storagetest.New(t)
	s := &seeder{t: t, repo: repository.NewResultRepository(db)}
	retention := repository.NewRetentionRepository(db)
	ctx := context.Background()

	cutoff := day.AddDate(0, 0, 30)

	s.record("old", 5, day, detection("Old.Threat"))
	s.record("rescanned", 0, day)
	s.record("rescanned", 0, cutoff.Add(time.Hour))
	s.record("fresh", 0, cutoff.Add(time.Hour))

	result, err := retention.PurgeBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Files)
	assert.Equal(t, int64(1), result.Scans)
	assert.Equal(t, int64(1), result.Detections)

	query := repository.NewQueryRepository(db)
	_, err = query.FileByHash(ctx, hashOf("old"))
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	_, err = query.FileByHash(ctx, hashOf("rescanned"))
	assert.NoError(t, err)

	threats, err := query.SearchThreats(ctx, "old.threat", 1, 0)
	require.NoError(t, err)
	assert.Len(t, threats, 1)

	again, err := retention.PurgeBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, again.Files)
}

func TestBackup_Snapshot(t *testing.T) {
	db := storagetest.New(t)
	s := &seeder{t: t, repo: repository.NewResultRepository(db)}
	ctx := context.Background()

	_, err := repository.NewUserRepository(db).Ensure(ctx, &entities.User{Username: "admin"})
	require.NoError(t, err)
	s.record("a", 0, day)
	s.record("b", 7, day, detection("T"))
	_, err = repository.NewStatisticsRepository(db).RefreshDay(ctx, day)
	require.NoError(t, err)

	snap, err := repository.NewBackupRepository(db).Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, repository.SnapshotVersion, snap.Version)
	assert.Equal(t, map[string]int{
		"users": 1, "files": 2, "scans": 2, "threats": 1, "detections": 1, "statistics": 1,
	}, snap.RowCounts())
	assert.Equal(t, entities.ScanStatusCompleted, snap.Scans[0].Status)
	assert.Equal(t, int64(1), snap.Statistics[0].ThreatsFound)
}

type fakeStore struct{ err error }

func (f fakeStore) Put(context.Context, string, io.Reader) (string, error) { return "", nil }
func (f fakeStore) Ping(context.Context) error                            { return f.err }
func (f fakeStore) Name() string                                          { return "fake" }

func TestHealth_Checks(t *testing.T) {
	db := storagetest.New(t)
	ctx := context.Background()

	healthy := repository.NewHealthRepository(db, fakeStore{})
	check, err := healthy.CheckHealth(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.HealthStatusUp, check.Status)
	assert.Equal(t, "sqlite", check.SystemInfo.Dialect)

	ready, _ := healthy.IsReady(ctx)
	assert.True(t, ready)

	degraded := repository.NewHealthRepository(db, fakeStore{err: assert.AnError})
	check, err = degraded.CheckHealth(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.HealthStatusPartial, check.Status)
	assert.Equal(t, entities.HealthStatusPartial, check.Checks["storage"].Status)
}

func TestHealth_MissingSchema(t *testing.T) {
	db, err := storage.Open(context.Background(), storagetest.Config(t), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	health := repository.NewHealthRepository(db, nil)
	ready, message := health.IsReady(context.Background())
	assert.False(t, ready)
	assert.Contains(t, message, "scans")

	check := health.CheckSchema(context.Background())
	assert.Equal(t, entities.HealthStatusDown, check.Status)
}
