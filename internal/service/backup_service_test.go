package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	"github.com/MegMacD/wordpointe-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := testutil.SetupTestDatabase(t)

	leader := testutil.CreateUser(t, src, "Deborah", models.RoleLeader, "judge-of-israel")
	student := testutil.CreateUser(t, src, "Barak", models.RoleStudent, "")
	item := testutil.CreateMemoryItem(t, src, "Judges 5:31")
	testutil.CreateVerseRecord(t, src, student.ID, item, 1, 10)
	testutil.CreateVerseRecord(t, src, student.ID, item, 2, 5)
	testutil.CreateSpendRecord(t, src, student.ID, 3, false)
	testutil.CreateSpendRecord(t, src, student.ID, 4, true)
	testutil.CreateBonusRecord(t, src, student.ID, -2)
	_, err := NewSettingsService(repository.NewSettingsRepository(src)).Get(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	exported, err := NewBackupService(src).Export(ctx, &buf)
	require.NoError(t, err)
	assert.Len(t, exported.Users, 2)
	assert.Len(t, exported.VerseRecords, 2)
	assert.Len(t, exported.SpendRecords, 2)
	require.NotNil(t, exported.Settings)

	dst := testutil.SetupTestDatabase(t)
	imported, err := NewBackupService(dst).Import(ctx, bytes.NewReader(buf.Bytes()), false)
	require.NoError(t, err)
	assert.Equal(t, BackupVersion, imported.Version)

	points := repository.NewPointsRepository(dst)
	summary, err := points.GetSummary(ctx, student.ID)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 15, summary.MemoryPoints)
	assert.Equal(t, -2, summary.BonusPoints)
	assert.Equal(t, 3, summary.TotalSpent)
	assert.Equal(t, 10, summary.CurrentPoints)

	users := repository.NewUserRepository(dst)
	restored, err := users.GetUserByID(ctx, leader.ID)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.True(t, restored.IsLeader)
	assert.Equal(t, leader.PasswordHash, restored.PasswordHash)

	next, err := users.CreateUser(ctx, "Jael", models.RoleStudent, "")
	require.NoError(t, err)
	assert.Greater(t, next.ID, student.ID)

	t.Run("non-empty target without replace", func(t *testing.T) {
		_, err := NewBackupService(dst).Import(ctx, bytes.NewReader(buf.Bytes()), false)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("replace", func(t *testing.T) {
		_, err := NewBackupService(dst).Import(ctx, bytes.NewReader(buf.Bytes()), true)
		require.NoError(t, err)

		all, err := users.GetAllUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("unknown version", func(t *testing.T) {
		_, err := NewBackupService(dst).Import(ctx, bytes.NewReader([]byte(`{"version":"99"}`)), true)
		assert.Error(t, err)
	})
}

func TestBackupLedgersMatchSummaryView(t *testing.T) {
	backup := &BackupData{
		Users: []UserBackup{{ID: 1, Name: "Ruth"}, {ID: 2, Name: "Naomi"}},
		VerseRecords: []models.VerseRecord{
			{UserID: 1, PointsAwarded: 10},
			{UserID: 1, PointsAwarded: 5},
		},
		BonusRecords: []models.BonusRecord{{UserID: 1, PointsAwarded: -2}},
		SpendRecords: []models.SpendRecord{
			{UserID: 1, PointsSpent: 3},
			{UserID: 1, PointsSpent: 4, Undone: true},
		},
	}

	ledgers := backup.Ledgers()
	require.Len(t, ledgers, 2)

	ruth := ledgers[1].Summary()
	assert.Equal(t, 15, ruth.MemoryPoints)
	assert.Equal(t, -2, ruth.BonusPoints)
	assert.Equal(t, 3, ruth.TotalSpent)
	assert.Equal(t, 10, ruth.CurrentPoints)
	assert.Equal(t, 0, ledgers[2].Summary().CurrentPoints)
}

func TestVerifyBalancesRejectsMismatch(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDatabase(t)
	user := testutil.CreateUser(t, db, "Boaz", models.RoleStudent, "")
	item := testutil.CreateMemoryItem(t, db, "Ruth 1:16")
	testutil.CreateVerseRecord(t, db, user.ID, item, 1, 10)
	points := repository.NewPointsRepository(db)

	matching := &BackupData{
		Users:        []UserBackup{{ID: user.ID}},
		VerseRecords: []models.VerseRecord{{UserID: user.ID, PointsAwarded: 10}},
	}
	assert.NoError(t, verifyBalances(ctx, points, matching))

	short := &BackupData{Users: []UserBackup{{ID: user.ID}}}
	assert.Error(t, verifyBalances(ctx, points, short))

	missing := &BackupData{Users: []UserBackup{{ID: 9999}}}
	assert.Error(t, verifyBalances(ctx, points, missing))
}
