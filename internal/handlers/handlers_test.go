package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MegMacD/wordpointe-sub001/internal/bible"
	"github.com/MegMacD/wordpointe-sub001/internal/database"
	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	"github.com/MegMacD/wordpointe-sub001/internal/security"
	"github.com/MegMacD/wordpointe-sub001/internal/service"
	"github.com/MegMacD/wordpointe-sub001/internal/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerses struct {
	verse       *bible.Verse
	err         error
	lastVersion string
}

func (f *fakeVerses) FetchVerse(ctx context.Context, reference, version string) (*bible.Verse, error) {
	f.lastVersion = version
	return f.verse, f.err
}

type testApp struct {
	db      *database.DB
	router  http.Handler
	verses  *fakeVerses
	leader  *models.User
	student *models.User
}

func newTestApp(t *testing.T, loginPerMinute int) *testApp {
	t.Helper()
	db := testutil.SetupTestDatabase(t)

	userRepo := repository.NewUserRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	itemRepo := repository.NewMemoryItemRepository(db)
	settings := service.NewSettingsService(repository.NewSettingsRepository(db))
	points := service.NewPointsService(pointsRepo)
	auth := service.NewSessionAuthenticator(userRepo, time.Hour)
	verses := &fakeVerses{}

	h := Handlers{
		Auth:        NewAuthHandler(auth),
		Bible:       NewBibleHandler(verses, settings),
		Records:     NewRecordHandler(service.NewRecordService(db, repository.NewVerseRecordRepository(db), userRepo, itemRepo, settings)),
		Spend:       NewSpendHandler(service.NewSpendService(db, repository.NewSpendRecordRepository(db), pointsRepo)),
		Bonus:       NewBonusHandler(service.NewBonusService(repository.NewBonusRecordRepository(db), userRepo)),
		Settings:    NewSettingsHandler(settings),
		Users:       NewUserHandler(service.NewUserService(userRepo, pointsRepo)),
		MemoryItems: NewMemoryItemHandler(service.NewMemoryItemService(itemRepo)),
		Reports:     NewReportHandler(service.NewReportService(points)),
		Health:      Healthz(db),
	}

	return &testApp{
		db:      db,
		router:  NewRouter(h, NewMiddleware(auth, security.NewRateLimiter(loginPerMinute), nil)),
		verses:  verses,
		leader:  testutil.CreateUser(t, db, "Deborah", models.RoleLeader, "judge-of-israel"),
		student: testutil.CreateUser(t, db, "Barak", models.RoleStudent, "commander1"),
	}
}

func (a *testApp) do(t *testing.T, method, target string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) login(t *testing.T, name, password string) []*http.Cookie {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/login", loginRequest{Name: name, Password: password}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Result().Cookies()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestAuthEndpoints(t *testing.T) {
	app := newTestApp(t, 100)

	t.Run("wrong password", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/auth/login", loginRequest{Name: "Deborah", Password: "wrong-password"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, service.ErrInvalidCredentials.Error(), decodeError(t, rec))
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, ErrInvalidJSON, decodeError(t, rec))
	})

	t.Run("anonymous me", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/auth/me", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"user": null}`, rec.Body.String())
	})

	t.Run("login, me and logout", func(t *testing.T) {
		cookies := app.login(t, "Deborah", "judge-of-israel")

		rec := app.do(t, http.MethodGet, "/api/auth/me", nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)
		var me userResponse
		decodeBody(t, rec, &me)
		require.NotNil(t, me.User)
		assert.Equal(t, "Deborah", me.User.Name)
		assert.NotContains(t, rec.Body.String(), "password")

		rec = app.do(t, http.MethodPost, "/api/auth/logout", nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success": true}`, rec.Body.String())

		rec = app.do(t, http.MethodGet, "/api/auth/me", nil, cookies)
		assert.JSONEq(t, `{"user": null}`, rec.Body.String())
	})
}

func TestLoginRateLimit(t *testing.T) {
	app := newTestApp(t, 2)

	for i := 0; i < 2; i++ {
		rec := app.do(t, http.MethodPost, "/api/auth/login", loginRequest{Name: "Deborah", Password: "nope-nope"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := app.do(t, http.MethodPost, "/api/auth/login", loginRequest{Name: "Deborah", Password: "judge-of-israel"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, ErrTooManyRequests, decodeError(t, rec))

	// A fresh forwarding header per attempt does not open a new bucket
	for _, forged := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"name":"Deborah","password":"judge-of-israel"}`))
		req.Header.Set("X-Forwarded-For", forged)
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	app := newTestApp(t, 100)
	patch := map[string]interface{}{"default_points_first": 20, "bible_version": "web"}

	t.Run("anonymous patch is rejected without mutation", func(t *testing.T) {
		rec := app.do(t, http.MethodPatch, "/api/settings", patch, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = app.do(t, http.MethodGet, "/api/settings", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var s models.Settings
		decodeBody(t, rec, &s)
		assert.Equal(t, models.DefaultPointsFirst, s.DefaultPointsFirst)
		assert.Equal(t, models.DefaultBibleVersion, s.BibleVersion)
	})

	t.Run("student patch is rejected", func(t *testing.T) {
		cookies := app.login(t, "Barak", "commander1")
		rec := app.do(t, http.MethodPatch, "/api/settings", patch, cookies)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("leader patch applies", func(t *testing.T) {
		cookies := app.login(t, "Deborah", "judge-of-israel")
		rec := app.do(t, http.MethodPatch, "/api/settings", patch, cookies)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var s models.Settings
		decodeBody(t, rec, &s)
		assert.Equal(t, 20, s.DefaultPointsFirst)
		assert.Equal(t, models.DefaultPointsRepeat, s.DefaultPointsRepeat)
		assert.Equal(t, "WEB", s.BibleVersion)
	})

	t.Run("negative points rejected", func(t *testing.T) {
		cookies := app.login(t, "Deborah", "judge-of-israel")
		rec := app.do(t, http.MethodPatch, "/api/settings", map[string]int{"default_points_repeat": -1}, cookies)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRecordEndpoints(t *testing.T) {
	app := newTestApp(t, 100)
	cookies := app.login(t, "Barak", "commander1")
	item := testutil.CreateMemoryItem(t, app.db, "John 3:16")

	checkURL := "/api/records/check?user_id=" + itoa(app.student.ID) + "&memory_item_id=" + itoa(item)

	t.Run("requires auth", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, checkURL, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing parameter", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/records/check?user_id=1", nil, cookies)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec), "memory_item_id")
	})

	t.Run("first then repeat", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, checkURL, nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)
		var info models.RecordInfo
		decodeBody(t, rec, &info)
		assert.True(t, info.IsFirst)
		assert.False(t, info.HasRecorded)

		body := createRecordRequest{UserID: app.student.ID, MemoryItemID: item}
		rec = app.do(t, http.MethodPost, "/api/records", body, cookies)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var first models.VerseRecord
		decodeBody(t, rec, &first)
		assert.Equal(t, 1, first.Occurrence)
		assert.Equal(t, models.DefaultPointsFirst, first.PointsAwarded)

		rec = app.do(t, http.MethodPost, "/api/records", body, cookies)
		require.Equal(t, http.StatusCreated, rec.Code)
		var second models.VerseRecord
		decodeBody(t, rec, &second)
		assert.Equal(t, 2, second.Occurrence)
		assert.Equal(t, models.DefaultPointsRepeat, second.PointsAwarded)

		rec = app.do(t, http.MethodGet, checkURL, nil, cookies)
		decodeBody(t, rec, &info)
		assert.Equal(t, 2, info.Count)
		assert.False(t, info.IsFirst)

		rec = app.do(t, http.MethodGet, "/api/records?user_id="+itoa(app.student.ID), nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)
		var records []models.VerseRecord
		decodeBody(t, rec, &records)
		assert.Len(t, records, 2)
	})

	t.Run("unknown memory item", func(t *testing.T) {
		body := createRecordRequest{UserID: app.student.ID, MemoryItemID: 9999}
		rec := app.do(t, http.MethodPost, "/api/records", body, cookies)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSpendEndpoints(t *testing.T) {
	app := newTestApp(t, 100)
	cookies := app.login(t, "Barak", "commander1")
	item := testutil.CreateMemoryItem(t, app.db, "Psalm 23:1")
	testutil.CreateVerseRecord(t, app.db, app.student.ID, item, 1, 10)

	t.Run("insufficient points", func(t *testing.T) {
		body := createSpendRequest{UserID: app.student.ID, PointsSpent: 11, Description: "prize"}
		rec := app.do(t, http.MethodPost, "/api/spend", body, cookies)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("zero points", func(t *testing.T) {
		body := createSpendRequest{UserID: app.student.ID, PointsSpent: 0}
		rec := app.do(t, http.MethodPost, "/api/spend", body, cookies)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("spend then undo twice", func(t *testing.T) {
		body := createSpendRequest{UserID: app.student.ID, PointsSpent: 4, Description: "sticker"}
		rec := app.do(t, http.MethodPost, "/api/spend", body, cookies)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var spend models.SpendRecord
		decodeBody(t, rec, &spend)

		undoURL := "/api/spend/" + itoa(spend.ID) + "/undo"
		rec = app.do(t, http.MethodPost, undoURL, nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var undone models.SpendRecord
		decodeBody(t, rec, &undone)
		assert.True(t, undone.Undone)

		rec = app.do(t, http.MethodPost, undoURL, nil, cookies)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, service.ErrAlreadyUndone.Error(), decodeError(t, rec))

		rec = app.do(t, http.MethodGet, "/api/users/"+itoa(app.student.ID), nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)
		var user models.UserWithPoints
		decodeBody(t, rec, &user)
		assert.Equal(t, 10, user.Points.CurrentPoints)
	})

	t.Run("undo unknown record", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/spend/9999/undo", nil, cookies)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBonusRequiresLeader(t *testing.T) {
	app := newTestApp(t, 100)
	body := createBonusRequest{UserID: app.student.ID, PointsAwarded: 5, Reason: "helping"}

	rec := app.do(t, http.MethodPost, "/api/bonus", body, app.login(t, "Barak", "commander1"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	leader := app.login(t, "Deborah", "judge-of-israel")
	rec = app.do(t, http.MethodPost, "/api/bonus", body, leader)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/bonus?user_id="+itoa(app.student.ID), nil, leader)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []models.BonusRecord
	decodeBody(t, rec, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "helping", records[0].Reason)
}

func TestWritesLogActingUser(t *testing.T) {
	app := newTestApp(t, 100)
	leader := app.login(t, "Deborah", "judge-of-israel")

	var buf bytes.Buffer
	originalOutput := log.StandardLogger().Out
	log.SetOutput(&buf)
	defer log.SetOutput(originalOutput)

	body := createBonusRequest{UserID: app.student.ID, PointsAwarded: 5, Reason: "helping"}
	rec := app.do(t, http.MethodPost, "/api/bonus", body, leader)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := buf.String()
	assert.Contains(t, out, "Bonus submitted")
	assert.Contains(t, out, "actor_id="+itoa(app.leader.ID))

	buf.Reset()
	rec = app.do(t, http.MethodPatch, "/api/settings", map[string]int{"default_points_first": 12}, leader)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, buf.String(), "actor_id="+itoa(app.leader.ID))
}

func TestRequireAuthStoresUserInContext(t *testing.T) {
	app := newTestApp(t, 100)
	auth := service.NewSessionAuthenticator(repository.NewUserRepository(app.db), time.Hour)
	m := NewMiddleware(auth, security.NewRateLimiter(100), nil)
	cookies := app.login(t, "Barak", "commander1")

	var seen *models.User
	h := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, app.student.ID, seen.ID)
	assert.Nil(t, GetUserFromContext(context.Background()))
}

func TestUserAndMemoryItemEndpoints(t *testing.T) {
	app := newTestApp(t, 100)
	leader := app.login(t, "Deborah", "judge-of-israel")

	rec := app.do(t, http.MethodPost, "/api/users", createUserRequest{Name: "Ruth", Role: models.RoleStudent}, leader)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/api/users", createUserRequest{Name: "Ruth", Role: models.RoleStudent}, leader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/users/9999", nil, leader)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/users", nil, leader)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []models.UserWithPoints
	decodeBody(t, rec, &users)
	assert.Len(t, users, 3)

	rec = app.do(t, http.MethodPost, "/api/memory-items", createMemoryItemRequest{Reference: "Nowhere 1:1"}, leader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/memory-items", createMemoryItemRequest{Reference: "john 3:16"}, leader)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item models.MemoryItem
	decodeBody(t, rec, &item)
	assert.Equal(t, "John 3:16", item.Reference)

	rec = app.do(t, http.MethodGet, "/api/memory-items/"+itoa(item.ID), nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBibleEndpoints(t *testing.T) {
	app := newTestApp(t, 100)

	t.Run("missing reference", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/bible/verse", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown verse", func(t *testing.T) {
		app.verses.verse, app.verses.err = nil, nil
		rec := app.do(t, http.MethodGet, "/api/bible/verse?reference=John+3:99", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, ErrVerseNotFound, decodeError(t, rec))
		assert.Equal(t, models.DefaultBibleVersion, app.verses.lastVersion)
	})

	t.Run("invalid reference", func(t *testing.T) {
		app.verses.verse = nil
		app.verses.err = &bible.InvalidReferenceError{Reference: "Nope", Err: errors.New("unknown book")}
		rec := app.do(t, http.MethodGet, "/api/bible/verse?reference=Nope", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("verse found with explicit version", func(t *testing.T) {
		app.verses.err = nil
		app.verses.verse = &bible.Verse{Reference: "John 3:16", Text: "For God so loved the world", Version: "WEB"}
		rec := app.do(t, http.MethodGet, "/api/bible/verse?reference=John+3:16&version=WEB", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "WEB", app.verses.lastVersion)

		var verse bible.Verse
		decodeBody(t, rec, &verse)
		assert.Equal(t, "For God so loved the world", verse.Text)
	})

	t.Run("validate", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/bible/validate?reference=Romans+8:28", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"isValid": true}`, rec.Body.String())

		rec = app.do(t, http.MethodGet, "/api/bible/validate?reference=Hezekiah+1:1", nil, nil)
		var result bible.ValidationResult
		decodeBody(t, rec, &result)
		assert.False(t, result.IsValid)
		assert.NotEmpty(t, result.Error)
	})
}

func TestUsersCSVEndpoint(t *testing.T) {
	app := newTestApp(t, 100)
	cookies := app.login(t, "Barak", "commander1")

	rec := app.do(t, http.MethodGet, "/api/reports/users-csv", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment;")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, service.UsersCSVHeader, lines[0])
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t, 100)

	rec := app.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wordpointe_")

	rec = app.do(t, http.MethodGet, "/api/does-not-exist", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decodeError(t, rec))
}

func TestDatastoreFailureIsGeneric500(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := &database.DB{DB: mockDB, Dialect: database.NewSQLiteDialect()}
	mock.ExpectQuery("SELECT default_points_first").WillReturnError(errors.New("database is locked"))

	handler := NewSettingsHandler(service.NewSettingsService(repository.NewSettingsRepository(db)))
	rec := httptest.NewRecorder()
	handler.Get(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrInternalServerError, decodeError(t, rec))
	assert.NotContains(t, rec.Body.String(), "locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
