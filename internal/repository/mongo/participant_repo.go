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

const participantCollectionName = "free_session_participants"

// mongoParticipantRepository implements repository.ParticipantRepository.
// One document per (branch, groupKey, sessionId, uid); the uid is the
// sub-collection key, so upserts keep at most one record per member per
// session.
type mongoParticipantRepository struct {
	collection *mongo.Collection
}

// NewMongoParticipantRepository creates a new participant repository backed by MongoDB.
func NewMongoParticipantRepository(db *mongo.Database) repository.ParticipantRepository {
	return &mongoParticipantRepository{
		collection: db.Collection(participantCollectionName),
	}
}

func participantScope(branch, groupKey, sessionID string) bson.M {
	return bson.M{"branch": branch, "groupKey": groupKey, "sessionId": sessionID}
}

// Upsert writes the member's record for the session, replacing any previous
// state for the same uid.
func (r *mongoParticipantRepository) Upsert(ctx context.Context, branch, groupKey, sessionID string, participant domain.Participant) error {
	if participant.UID == "" {
		return errors.New("participant requires uid")
	}

	filter := participantScope(branch, groupKey, sessionID)
	filter["uid"] = participant.UID

	update := bson.M{"$set": bson.M{
		"name":      participant.Name,
		"state":     participant.State,
		"updatedAt": participant.UpdatedAt,
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// ListBySession retrieves every participant record of the session. Stored
// state strings are normalized through ParseParticipantState so unknown
// values read back as INVITED instead of failing.
func (r *mongoParticipantRepository) ListBySession(ctx context.Context, branch, groupKey, sessionID string) ([]domain.Participant, error) {
	cursor, err := r.collection.Find(ctx, participantScope(branch, groupKey, sessionID))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var participants []domain.Participant
	if err = cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	for i := range participants {
		participants[i].State = domain.ParseParticipantState(string(participants[i].State))
	}
	return participants, nil
}

// DeleteBatch removes up to limit participant records of the session and
// reports how many went. The two-step find-then-delete keeps each round's
// mutation count bounded, which DeleteMany alone cannot guarantee.
func (r *mongoParticipantRepository) DeleteBatch(ctx context.Context, branch, groupKey, sessionID string, limit int) (int, error) {
	if limit <= 0 {
		return 0, errors.New("delete batch limit must be positive")
	}

	findOptions := options.Find().
		SetLimit(int64(limit)).
		SetProjection(bson.M{"uid": 1})

	cursor, err := r.collection.Find(ctx, participantScope(branch, groupKey, sessionID), findOptions)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var batch []struct {
		UID string `bson:"uid"`
	}
	if err = cursor.All(ctx, &batch); err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}

	uids := make([]string, 0, len(batch))
	for _, doc := range batch {
		uids = append(uids, doc.UID)
	}

	filter := participantScope(branch, groupKey, sessionID)
	filter["uid"] = bson.M{"$in": uids}

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int(result.DeletedCount), nil
}

// Watch emits a tick whenever any participant document changes; consumers
// re-query their own session's records.
func (r *mongoParticipantRepository) Watch(ctx context.Context, branch, groupKey, sessionID string) (<-chan struct{}, error) {
	return watchChanges(ctx, r.collection)
}

// EnsureParticipantIndexes creates necessary indexes for the participant
// collection. Call once during application startup.
func EnsureParticipantIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One record per member per session.
			Keys: bson.D{
				{Key: "branch", Value: 1},
				{Key: "groupKey", Value: 1},
				{Key: "sessionId", Value: 1},
				{Key: "uid", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			// Full-set reads for counter recompute and the live view.
			Keys: bson.D{
				{Key: "branch", Value: 1},
				{Key: "groupKey", Value: 1},
				{Key: "sessionId", Value: 1},
			},
			Options: options.Index(),
		},
	}

	// Index creation failure is not fatal for serving traffic.
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
