package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tourbot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const bookingsCounterID = "bookings"

// MongoBookingRepo implements BookingRepository on MongoDB. Uniqueness of the duplicate
// tuple is enforced by a unique index; ids come from an atomically incremented counter
// document and are therefore never reused.
type MongoBookingRepo struct {
	coll     *mongo.Collection
	counters *mongo.Collection
	now      func() time.Time
	logger   *zap.Logger

	// mu keeps check-then-insert ordered within this process; the unique index covers the rest.
	mu sync.Mutex
}

// NewMongoBookingRepo creates the repository and ensures its indexes.
func NewMongoBookingRepo(ctx context.Context, db *mongo.Database, now func() time.Time, logger *zap.Logger) (*MongoBookingRepo, error) {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	repo := &MongoBookingRepo{
		coll:     db.Collection("bookings"),
		counters: db.Collection("counters"),
		now:      now,
		logger:   logger,
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureIndexes creates indexes for the id and the duplicate tuple.
func (r *MongoBookingRepo) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "location", Value: 1},
				{Key: "date", Value: 1},
				{Key: "time", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("booking_slot_unique"),
		},
		{Keys: bson.D{{Key: "date", Value: 1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) AppendIfAbsent(ctx context.Context, draft models.Draft) (*models.Booking, error) {
	if !draft.Complete() {
		return nil, ErrIncompleteDraft
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	exists, err := r.exists(ctx, draft.User.UserID, draft.Location, draft.Date, draft.Time)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateBooking
	}

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, persistErr("reserve id", err)
	}

	booking := draft.ToBooking(id, r.now().UTC().Truncate(time.Millisecond))
	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateBooking
		}
		return nil, persistErr("append", err)
	}
	return &booking, nil
}

func (r *MongoBookingRepo) nextID(ctx context.Context) (int, error) {
	var counter struct {
		Seq int `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": bookingsCounterID},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("error incrementing booking counter: %w", err)
	}
	return counter.Seq, nil
}

func (r *MongoBookingRepo) ListAll(ctx context.Context) ([]models.Booking, error) {
	return r.list(ctx, bson.M{})
}

func (r *MongoBookingRepo) ListByDate(ctx context.Context, date string) ([]models.Booking, error) {
	return r.list(ctx, bson.M{"date": date})
}

// list reads like the file backend: an unreachable or undecodable collection reads as
// empty. Only cancellation by the caller is returned.
func (r *MongoBookingRepo) list(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	bookings, err := r.find(ctx, filter)
	if err == nil {
		return bookings, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	r.logger.Warn("bookings collection unreadable, treating as empty", zap.Error(err))
	return []models.Booking{}, nil
}

func (r *MongoBookingRepo) find(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, persistErr("list", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, persistErr("decode", err)
	}
	return bookings, nil
}

func (r *MongoBookingRepo) Exists(ctx context.Context, userID int64, location, date, clock string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.exists(ctx, userID, location, date, clock)
}

func (r *MongoBookingRepo) exists(ctx context.Context, userID int64, location, date, clock string) (bool, error) {
	filter := bson.M{"user_id": userID, "location": location, "date": date, "time": clock}
	err := r.coll.FindOne(ctx, filter).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, persistErr("exists", err)
	}
	return true, nil
}

func (r *MongoBookingRepo) UpdateStatus(ctx context.Context, id int, status models.BookingStatus) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return false, persistErr("update status", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoBookingRepo) DeleteByID(ctx context.Context, id int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return false, persistErr("delete", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoBookingRepo) DeleteAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return persistErr("delete all", err)
	}
	return nil
}
