// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MegMacD/wordpointe-sub001/internal/database"
	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// SetupTestDatabase opens a migrated SQLite database in a per-test temp dir.
// A file is used rather than :memory: because migrations run on their own connection.
func SetupTestDatabase(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "wordpointe_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations())
	return db
}

// CreateUser inserts a user. A non-empty password is hashed at minimum cost.
func CreateUser(t *testing.T, db database.DBTX, name string, role models.Role, password string) *models.User {
	t.Helper()

	var hash interface{}
	if password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		hash = string(b)
	}

	ctx := context.Background()
	id, err := db.ExecReturningID(ctx,
		`INSERT INTO users (name, role, is_leader, password_hash) VALUES (?, ?, ?, ?)`,
		name, string(role), role == models.RoleLeader, hash)
	require.NoError(t, err)

	user := &models.User{ID: id, Name: name, Role: role, IsLeader: role == models.RoleLeader}
	if s, ok := hash.(string); ok {
		user.PasswordHash = s
	}
	return user
}

// CreateMemoryItem inserts a memory item and returns its id
func CreateMemoryItem(t *testing.T, db database.DBTX, reference string) int64 {
	t.Helper()

	id, err := db.ExecReturningID(context.Background(),
		`INSERT INTO memory_items (reference, title) VALUES (?, ?)`, reference, reference)
	require.NoError(t, err)
	return id
}

// CreateVerseRecord inserts a verse record directly
func CreateVerseRecord(t *testing.T, db database.DBTX, userID, memoryItemID int64, occurrence, points int) {
	t.Helper()

	_, err := db.ExecContext(context.Background(),
		`INSERT INTO verse_records (user_id, memory_item_id, occurrence, points_awarded) VALUES (?, ?, ?, ?)`,
		userID, memoryItemID, occurrence, points)
	require.NoError(t, err)
}

// CreateSpendRecord inserts a spend record directly and returns its id
func CreateSpendRecord(t *testing.T, db database.DBTX, userID int64, points int, undone bool) int64 {
	t.Helper()

	id, err := db.ExecReturningID(context.Background(),
		`INSERT INTO spend_records (user_id, points_spent, description, undone) VALUES (?, ?, ?, ?)`,
		userID, points, "test spend", undone)
	require.NoError(t, err)
	return id
}

// CreateBonusRecord inserts a bonus record directly
func CreateBonusRecord(t *testing.T, db database.DBTX, userID int64, points int) {
	t.Helper()

	_, err := db.ExecContext(context.Background(),
		`INSERT INTO bonus_records (user_id, points_awarded, reason) VALUES (?, ?, ?)`,
		userID, points, "test bonus")
	require.NoError(t, err)
}
