// Package storage provides the alternative session store backends
// (MongoDB and Redis) selectable via SESSION_BACKEND. Both implement the
// same contract as the SQLite-backed repo.SessionRepo: atomic lock
// acquisition, monotonic state writes, and domain.ErrSessionNotFound for
// missing sessions.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/filmrelay/go-movie-backend/internal/domain"
)

// mongoSession is the BSON shape of a stored session.
type mongoSession struct {
	ID            string    `bson:"_id"`
	UserID        int64     `bson:"user_id"`
	MovieID       string    `bson:"movie_id"`
	Title         string    `bson:"title,omitempty"`
	Page          int       `bson:"page"`
	Source        string    `bson:"source,omitempty"`
	Quality       string    `bson:"quality,omitempty"`
	State         string    `bson:"state"`
	Locked        bool      `bson:"locked"`
	ExpiresAt     time.Time `bson:"expires_at"`
	DeliveredFile string    `bson:"delivered_file,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

// MongoStore is the MongoDB-backed session store.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

// NewMongoStore connects to MongoDB and prepares the sessions collection.
// A TTL index on expires_at reaps abandoned documents eventually; logical
// expiry is still enforced on read by the lifecycle manager.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("MONGODB_URI is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	col := client.Database("moviebot").Collection("sessions")
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return &MongoStore{client: client, col: col}, nil
}

// Close disconnects the underlying client.
func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Create inserts a session document, assigning a UUID when absent.
func (m *MongoStore) Create(ctx context.Context, s *domain.Session) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.State == "" {
		s.State = domain.StatePending
	}
	now := time.Now().UTC()
	doc := mongoSession{
		ID:        s.ID,
		UserID:    s.UserID,
		MovieID:   s.MovieID,
		Title:     s.Title,
		Page:      s.Page,
		Source:    s.Source,
		Quality:   s.Quality,
		State:     string(s.State),
		Locked:    false,
		ExpiresAt: s.ExpiresAt.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return s.ID, nil
}

// Get fetches a session by ID, or domain.ErrSessionNotFound.
func (m *MongoStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	var doc mongoSession
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// TryLock acquires the delivery lock with a single FindOneAndUpdate on
// {_id, locked: false}; Mongo's document-level atomicity guarantees at
// most one concurrent winner.
func (m *MongoStore) TryLock(ctx context.Context, id string) (bool, error) {
	res := m.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "locked": false},
		bson.M{"$set": bson.M{"locked": true, "updated_at": time.Now().UTC()}},
	)
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Unlock clears the delivery lock; missing sessions are a no-op.
func (m *MongoStore) Unlock(ctx context.Context, id string) error {
	_, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"locked": false, "updated_at": time.Now().UTC()}},
	)
	return err
}

// SetState advances the state monotonically: the filter only matches
// documents whose stored state ranks below the target.
func (m *MongoStore) SetState(ctx context.Context, id string, state domain.SessionState) error {
	lower := lowerStateStrings(state)
	if len(lower) == 0 {
		return nil
	}
	_, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id, "state": bson.M{"$in": lower}},
		bson.M{"$set": bson.M{"state": string(state), "updated_at": time.Now().UTC()}},
	)
	return err
}

// SetDelivered marks the session terminally delivered.
func (m *MongoStore) SetDelivered(ctx context.Context, id, fileID string) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id, "state": bson.M{"$ne": string(domain.StateDelivered)}},
		bson.M{"$set": bson.M{
			"state":          string(domain.StateDelivered),
			"delivered_file": fileID,
			"updated_at":     time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// SetSource records the chosen source.
func (m *MongoStore) SetSource(ctx context.Context, id, source string) error {
	return m.setField(ctx, id, "source", source)
}

// SetQuality records the chosen quality.
func (m *MongoStore) SetQuality(ctx context.Context, id, quality string) error {
	return m.setField(ctx, id, "quality", quality)
}

// ExtendExpiry re-sets the expiry deadline; missing sessions are a no-op.
func (m *MongoStore) ExtendExpiry(ctx context.Context, id string, until time.Time) error {
	_, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"expires_at": until.UTC(), "updated_at": time.Now().UTC()}},
	)
	return err
}

func (m *MongoStore) setField(ctx context.Context, id, field, value string) error {
	_, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{field: value, "updated_at": time.Now().UTC()}},
	)
	return err
}

func (d *mongoSession) toDomain() *domain.Session {
	return &domain.Session{
		ID:            d.ID,
		UserID:        d.UserID,
		MovieID:       d.MovieID,
		Title:         d.Title,
		Page:          d.Page,
		Source:        d.Source,
		Quality:       d.Quality,
		State:         domain.SessionState(d.State),
		Locked:        d.Locked,
		ExpiresAt:     d.ExpiresAt,
		DeliveredFile: d.DeliveredFile,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func lowerStateStrings(target domain.SessionState) []string {
	all := []domain.SessionState{domain.StatePending, domain.StateProcessing, domain.StateDelivered}
	out := make([]string, 0, len(all))
	for _, s := range all {
		if s.Rank() < target.Rank() {
			out = append(out, string(s))
		}
	}
	return out
}
