package bookingRepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tourbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time {
	return time.Date(2025, 7, 18, 10, 0, 0, 0, time.UTC)
}

func newTestRepo(t *testing.T) (*FileBookingRepo, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookings.json")
	return NewFileBookingRepo(path, fixedNow, nil), path
}

func draftFor(userID int64, location, date, clock string, people int) models.Draft {
	return models.Draft{
		Location: location,
		Date:     date,
		Time:     clock,
		People:   people,
		User:     models.UserIdentity{UserID: userID, Username: "user", FirstName: "Имя", ChatID: userID},
	}
}

func TestFileBookingRepo_AppendIfAbsent(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestRepo(t)

	first, err := repo.AppendIfAbsent(ctx, draftFor(111, "Белая Скала", "20.07.2025", "08:00", 2))
	require.NoError(t, err)
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, models.StatusNew, first.Status)
	assert.Equal(t, fixedNow(), first.CreatedAt)

	_, err = repo.AppendIfAbsent(ctx, draftFor(111, "Белая Скала", "20.07.2025", "08:00", 4))
	assert.ErrorIs(t, err, ErrDuplicateBooking)

	second, err := repo.AppendIfAbsent(ctx, draftFor(222, "Белая Скала", "20.07.2025", "08:00", 2))
	require.NoError(t, err)
	assert.Equal(t, 2, second.ID)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []int{1, 2}, []int{all[0].ID, all[1].ID})

	// A fresh repository on the same file sees the same collection.
	reloaded := NewFileBookingRepo(path, fixedNow, nil)
	again, err := reloaded.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, again)
}

func TestFileBookingRepo_SameTupleStoredOnce(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestRepo(t)

	_, err := repo.AppendIfAbsent(ctx, draftFor(111, "Белая Скала", "20.07.2025", "08:00", 2))
	require.NoError(t, err)

	// A restarted process shares nothing in memory with the first one.
	restarted := NewFileBookingRepo(path, fixedNow, nil)
	_, err = restarted.AppendIfAbsent(ctx, draftFor(111, "Белая Скала", "20.07.2025", "08:00", 2))
	assert.ErrorIs(t, err, ErrDuplicateBooking)

	all, err := restarted.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].ID)
}

func TestFileBookingRepo_IncompleteDraft(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.AppendIfAbsent(context.Background(), models.Draft{Location: "Белая Скала"})
	assert.ErrorIs(t, err, ErrIncompleteDraft)
}

func TestFileBookingRepo_Exists(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	exists, err := repo.Exists(ctx, 111, "Белая Скала", "20.07.2025", "08:00")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.AppendIfAbsent(ctx, draftFor(111, "Белая Скала", "20.07.2025", "08:00", 2))
	require.NoError(t, err)
	_, err = repo.AppendIfAbsent(ctx, draftFor(333, "Вершины Феодосии", "21.07.2025", "09:00", 1))
	require.NoError(t, err)

	for _, tc := range []struct {
		user     int64
		location string
		date     string
		clock    string
		want     bool
	}{
		{111, "Белая Скала", "20.07.2025", "08:00", true},
		{111, "Белая Скала", "20.07.2025", "14:00", false},
		{111, "Белая Скала", "21.07.2025", "08:00", false},
		{111, "Арпатские водопады", "20.07.2025", "08:00", false},
		{222, "Белая Скала", "20.07.2025", "08:00", false},
		{333, "Вершины Феодосии", "21.07.2025", "09:00", true},
	} {
		got, err := repo.Exists(ctx, tc.user, tc.location, tc.date, tc.clock)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%+v", tc)
	}
}

func TestFileBookingRepo_ListByDate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	for _, d := range []models.Draft{
		draftFor(1, "Белая Скала", "20.07.2025", "08:00", 2),
		draftFor(2, "Белая Скала", "21.07.2025", "08:00", 2),
		draftFor(3, "Белая Скала", "20.07.2025", "14:00", 2),
	} {
		_, err := repo.AppendIfAbsent(ctx, d)
		require.NoError(t, err)
	}

	got, err := repo.ListByDate(ctx, "20.07.2025")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].UserID)
	assert.Equal(t, int64(3), got[1].UserID)

	none, err := repo.ListByDate(ctx, "01.01.2030")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFileBookingRepo_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	b, err := repo.AppendIfAbsent(ctx, draftFor(1, "Белая Скала", "20.07.2025", "08:00", 2))
	require.NoError(t, err)

	found, err := repo.UpdateStatus(ctx, b.ID, models.StatusConfirmed)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.UpdateStatus(ctx, 99, models.StatusConfirmed)
	require.NoError(t, err)
	assert.False(t, found)

	all, _ := repo.ListAll(ctx)
	assert.Equal(t, models.StatusConfirmed, all[0].Status)
}

func TestFileBookingRepo_DeleteByID(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	for i := int64(1); i <= 3; i++ {
		_, err := repo.AppendIfAbsent(ctx, draftFor(i, "Белая Скала", "20.07.2025", "08:00", 1))
		require.NoError(t, err)
	}

	before, _ := repo.ListAll(ctx)

	deleted, err := repo.DeleteByID(ctx, 42)
	require.NoError(t, err)
	assert.False(t, deleted)
	unchanged, _ := repo.ListAll(ctx)
	assert.Equal(t, before, unchanged)

	deleted, err = repo.DeleteByID(ctx, 3)
	require.NoError(t, err)
	assert.True(t, deleted)

	after, _ := repo.ListAll(ctx)
	assert.Equal(t, before[:2], after)

	// The id of a deleted booking is never handed out again.
	next, err := repo.AppendIfAbsent(ctx, draftFor(9, "Белая Скала", "20.07.2025", "08:00", 1))
	require.NoError(t, err)
	assert.Equal(t, 4, next.ID)
}

func TestFileBookingRepo_DeleteAll(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	_, err := repo.AppendIfAbsent(ctx, draftFor(1, "Белая Скала", "20.07.2025", "08:00", 1))
	require.NoError(t, err)
	_, err = repo.AppendIfAbsent(ctx, draftFor(2, "Белая Скала", "20.07.2025", "08:00", 1))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteAll(ctx))
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	next, err := repo.AppendIfAbsent(ctx, draftFor(1, "Белая Скала", "20.07.2025", "08:00", 1))
	require.NoError(t, err)
	assert.Equal(t, 3, next.ID)
}

func TestFileBookingRepo_MissingOrCorruptFileReadsEmpty(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestRepo(t)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	all, err = repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	b, err := repo.AppendIfAbsent(ctx, draftFor(1, "Белая Скала", "20.07.2025", "08:00", 1))
	require.NoError(t, err)
	assert.Equal(t, 1, b.ID)

	backups, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	kept, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(kept))
}

func TestFileBookingRepo_ReadsLegacyFile(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestRepo(t)

	legacy := `[
  {"location": "Белая Скала", "date": "20.07.2025", "time": "08:00", "people": "2",
   "user_id": 111, "username": "ivan", "first_name": "Иван", "chat_id": 111,
   "id": 1, "timestamp": "2025-07-18T10:15:30.123456", "status": "new"}
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	exists, err := repo.Exists(ctx, 111, "Белая Скала", "20.07.2025", "08:00")
	require.NoError(t, err)
	assert.True(t, exists)

	b, err := repo.AppendIfAbsent(ctx, draftFor(222, "Белая Скала", "20.07.2025", "08:00", 2))
	require.NoError(t, err)
	assert.Equal(t, 2, b.ID)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Белая Скала", "UTF-8 text is written unescaped")
}

func TestFileBookingRepo_ConcurrentDuplicateConfirmations(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dupes     int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AppendIfAbsent(ctx, draftFor(111, "Белая Скала", "20.07.2025", "08:00", 2))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrDuplicateBooking):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, dupes)

	all, _ := repo.ListAll(ctx)
	assert.Len(t, all, 1)
}

func TestFileBookingRepo_ConcurrentAppendsGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	const users = 20
	var wg sync.WaitGroup
	for i := 1; i <= users; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			_, err := repo.AppendIfAbsent(ctx, draftFor(user, "Белая Скала", "20.07.2025", "08:00", 1))
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, users)
	seen := map[int]bool{}
	for _, b := range all {
		assert.False(t, seen[b.ID], "id %d issued twice", b.ID)
		seen[b.ID] = true
	}
}

func TestFileBookingRepo_WriteFailureIsSurfaced(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing-dir")
	repo := NewFileBookingRepo(filepath.Join(dir, "bookings.json"), fixedNow, nil)

	_, err := repo.AppendIfAbsent(context.Background(), draftFor(1, "Белая Скала", "20.07.2025", "08:00", 1))
	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestFileBookingRepo_ReadFailureAbortsWrites(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestRepo(t)

	first, err := repo.AppendIfAbsent(ctx, draftFor(1, "Белая Скала", "20.07.2025", "08:00", 1))
	require.NoError(t, err)

	// Park the real file and put a directory in its place so reads fail without a decode error.
	parked := path + ".parked"
	require.NoError(t, os.Rename(path, parked))
	require.NoError(t, os.Mkdir(path, 0o755))

	var perr *PersistenceError
	_, err = repo.AppendIfAbsent(ctx, draftFor(2, "Белая Скала", "20.07.2025", "08:00", 1))
	assert.ErrorAs(t, err, &perr)
	_, err = repo.UpdateStatus(ctx, first.ID, models.StatusConfirmed)
	assert.ErrorAs(t, err, &perr)
	_, err = repo.DeleteByID(ctx, first.ID)
	assert.ErrorAs(t, err, &perr)
	assert.ErrorAs(t, repo.DeleteAll(ctx), &perr)

	backups, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	assert.Empty(t, backups, "only unparsable files are moved aside")

	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Rename(parked, path))
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, models.StatusNew, all[0].Status)
}
