package mongo

import (
	"alcyxob/dojo-app/internal/domain"
	"alcyxob/dojo-app/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollectionName = "free_sessions"

// mongoSessionRepository implements repository.SessionRepository.
//
// One document per session; the (branch, groupKey) pair that forms the
// document path prefix in the original store layout is carried as indexed
// partition fields instead of nesting.
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new session repository backed by MongoDB.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

func sessionKey(branch, groupKey, sessionID string) bson.M {
	return bson.M{"branch": branch, "groupKey": groupKey, "sessionId": sessionID}
}

// Create inserts a new session document.
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	// Basic validation; richer rules belong in the service layer.
	if session.ID == "" || session.Branch == "" || session.GroupKey == "" {
		return errors.New("session requires sessionId, branch and groupKey")
	}
	if session.StartsAt == 0 {
		return errors.New("session requires startsAt")
	}

	_, err := r.collection.InsertOne(ctx, session)
	return err
}

// GetByID retrieves one session within its (branch, groupKey) scope.
func (r *mongoSessionRepository) GetByID(ctx context.Context, branch, groupKey, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := r.collection.FindOne(ctx, sessionKey(branch, groupKey, sessionID)).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ListFrom retrieves sessions starting at or after fromMillis, ascending by
// start time. Status is deliberately not part of the filter (see the
// repository interface note); only startsAt is range-queried here.
func (r *mongoSessionRepository) ListFrom(ctx context.Context, branch, groupKey string, fromMillis int64) ([]domain.Session, error) {
	filter := bson.M{
		"branch":   branch,
		"groupKey": groupKey,
		"startsAt": bson.M{"$gte": fromMillis},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "startsAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []domain.Session
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// UpdateCounts overwrites the four denormalized counters on the session.
func (r *mongoSessionRepository) UpdateCounts(ctx context.Context, branch, groupKey, sessionID string, counts domain.StateCounts) error {
	update := bson.M{"$set": bson.M{
		"goingCount":   counts.Going,
		"onWayCount":   counts.OnWay,
		"arrivedCount": counts.Arrived,
		"cantCount":    counts.Cant,
	}}

	result, err := r.collection.UpdateOne(ctx, sessionKey(branch, groupKey, sessionID), update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Close sets status=CLOSED and closedAt. Re-closing a closed session is a
// no-op success; only a missing session is an error.
func (r *mongoSessionRepository) Close(ctx context.Context, branch, groupKey, sessionID string, closedAtMillis int64) error {
	filter := sessionKey(branch, groupKey, sessionID)
	filter["status"] = domain.SessionOpen
	update := bson.M{"$set": bson.M{
		"status":   domain.SessionClosed,
		"closedAt": closedAtMillis,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Either already closed (fine) or genuinely absent.
		if _, getErr := r.GetByID(ctx, branch, groupKey, sessionID); getErr != nil {
			return getErr
		}
	}
	return nil
}

// Delete removes the session document itself. Participant cleanup is the
// caller's responsibility (bounded batches, before this call).
func (r *mongoSessionRepository) Delete(ctx context.Context, branch, groupKey, sessionID string) error {
	result, err := r.collection.DeleteOne(ctx, sessionKey(branch, groupKey, sessionID))
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Watch emits a tick whenever any session document changes. The stream is
// collection-wide; consumers re-query their own (branch, groupKey) scope, so
// ticks for other groups just cause a cheap redundant read.
func (r *mongoSessionRepository) Watch(ctx context.Context, branch, groupKey string) (<-chan struct{}, error) {
	return watchChanges(ctx, r.collection)
}

// EnsureSessionIndexes creates necessary indexes for the free_sessions
// collection. Call once during application startup.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Identity within the (branch, groupKey) partition.
			Keys:    bson.D{{Key: "branch", Value: 1}, {Key: "groupKey", Value: 1}, {Key: "sessionId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Range scans for the upcoming view.
			Keys:    bson.D{{Key: "branch", Value: 1}, {Key: "groupKey", Value: 1}, {Key: "startsAt", Value: 1}},
			Options: options.Index(),
		},
	}

	// Index creation failure is not fatal for serving traffic.
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
