package bookingRepo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"tourbot/models"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// FileBookingRepo keeps the whole collection in one JSON file, rewritten atomically on
// every mutation. The highest id ever issued lives in a sidecar "<path>.seq" file so that
// deletions never cause an id to be reused.
type FileBookingRepo struct {
	path    string
	seqPath string
	now     func() time.Time
	logger  *zap.Logger

	// mu serialises every read-modify-write of the collection within this process.
	mu sync.Mutex
}

// NewFileBookingRepo creates a repository backed by the JSON file at path.
func NewFileBookingRepo(path string, now func() time.Time, logger *zap.Logger) *FileBookingRepo {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileBookingRepo{
		path:    path,
		seqPath: path + ".seq",
		now:     now,
		logger:  logger,
	}
}

func (r *FileBookingRepo) AppendIfAbsent(ctx context.Context, draft models.Draft) (*models.Booking, error) {
	if !draft.Complete() {
		return nil, ErrIncompleteDraft
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bookings, err := r.loadForWrite()
	if err != nil {
		return nil, persistErr("load", err)
	}
	if containsSlot(bookings, draft.User.UserID, draft.Location, draft.Date, draft.Time) {
		return nil, ErrDuplicateBooking
	}

	id := max(r.readSeq(), maxID(bookings)) + 1
	// The counter is made durable first: a crash between the two writes skips an id, never reuses one.
	if err := r.writeSeq(id); err != nil {
		return nil, persistErr("reserve id", err)
	}

	booking := draft.ToBooking(id, r.now())
	bookings = append(bookings, booking)
	if err := r.save(bookings); err != nil {
		return nil, persistErr("append", err)
	}

	r.logger.Info("booking stored",
		zap.Int("booking_id", booking.ID),
		zap.Int64("user_id", booking.UserID),
		zap.String("location", booking.Location),
		zap.String("date", booking.Date),
		zap.String("time", booking.Time))
	return &booking, nil
}

func (r *FileBookingRepo) ListAll(ctx context.Context) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(), nil
}

func (r *FileBookingRepo) ListByDate(ctx context.Context, date string) ([]models.Booking, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(b models.Booking, _ int) bool {
		return b.Date == date
	}), nil
}

func (r *FileBookingRepo) Exists(ctx context.Context, userID int64, location, date, clock string) (bool, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return false, err
	}
	return containsSlot(all, userID, location, date, clock), nil
}

func (r *FileBookingRepo) UpdateStatus(ctx context.Context, id int, status models.BookingStatus) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	bookings, err := r.loadForWrite()
	if err != nil {
		return false, persistErr("load", err)
	}
	_, idx, found := lo.FindIndexOf(bookings, func(b models.Booking) bool {
		return b.ID == id
	})
	if !found {
		return false, nil
	}
	bookings[idx].Status = status
	if err := r.save(bookings); err != nil {
		return false, persistErr("update status", err)
	}
	return true, nil
}

func (r *FileBookingRepo) DeleteByID(ctx context.Context, id int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	bookings, err := r.loadForWrite()
	if err != nil {
		return false, persistErr("load", err)
	}
	kept := lo.Reject(bookings, func(b models.Booking, _ int) bool {
		return b.ID == id
	})
	if len(kept) == len(bookings) {
		return false, nil
	}
	// Keep the counter ahead of the removed id even if it was the highest one.
	if err := r.writeSeq(max(r.readSeq(), maxID(bookings))); err != nil {
		return false, persistErr("delete", err)
	}
	if err := r.save(kept); err != nil {
		return false, persistErr("delete", err)
	}
	return true, nil
}

func (r *FileBookingRepo) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	bookings, err := r.loadForWrite()
	if err != nil {
		return persistErr("load", err)
	}
	if err := r.writeSeq(max(r.readSeq(), maxID(bookings))); err != nil {
		return persistErr("delete all", err)
	}
	if err := r.save([]models.Booking{}); err != nil {
		return persistErr("delete all", err)
	}
	return nil
}

// load reads the collection from disk. A missing or unparsable file reads as empty.
func (r *FileBookingRepo) load() []models.Booking {
	bookings, err := r.read()
	if err != nil {
		r.logger.Warn("bookings file unreadable, treating as empty", zap.String("path", r.path), zap.Error(err))
		return []models.Booking{}
	}
	return bookings
}

// loadForWrite is load for mutating callers. An unparsable file is moved aside before it
// gets overwritten, so its content can still be recovered by hand. Any other read failure
// is returned: writing over a file we could not read would drop its bookings.
func (r *FileBookingRepo) loadForWrite() ([]models.Booking, error) {
	bookings, err := r.read()
	if err == nil {
		return bookings, nil
	}
	if !errors.Is(err, errUnparsable) {
		return nil, err
	}
	backup := fmt.Sprintf("%s.corrupt-%d", r.path, r.now().UnixNano())
	if renameErr := os.Rename(r.path, backup); renameErr != nil {
		r.logger.Error("failed to move unreadable bookings file aside",
			zap.String("path", r.path), zap.Error(errors.Join(err, renameErr)))
	} else {
		r.logger.Warn("unreadable bookings file moved aside",
			zap.String("path", r.path), zap.String("backup", backup), zap.Error(err))
	}
	return []models.Booking{}, nil
}

func (r *FileBookingRepo) read() ([]models.Booking, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Booking{}, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Booking{}, nil
	}
	var bookings []models.Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errUnparsable, r.path, err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

func (r *FileBookingRepo) save(bookings []models.Booking) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bookings); err != nil {
		return fmt.Errorf("encode bookings: %w", err)
	}
	return writeFileAtomic(r.path, buf.Bytes())
}

func (r *FileBookingRepo) readSeq() int {
	data, err := os.ReadFile(r.seqPath)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 0 {
		r.logger.Warn("ignoring malformed id counter", zap.String("path", r.seqPath))
		return 0
	}
	return n
}

func (r *FileBookingRepo) writeSeq(n int) error {
	return writeFileAtomic(r.seqPath, []byte(strconv.Itoa(n)+"\n"))
}

func containsSlot(bookings []models.Booking, userID int64, location, date, clock string) bool {
	return lo.ContainsBy(bookings, func(b models.Booking) bool {
		return b.SameSlot(userID, location, date, clock)
	})
}

func maxID(bookings []models.Booking) int {
	if len(bookings) == 0 {
		return 0
	}
	return lo.Max(lo.Map(bookings, func(b models.Booking, _ int) int {
		return b.ID
	}))
}
