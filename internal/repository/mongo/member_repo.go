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

const memberCollectionName = "members"

// mongoMemberRepository implements the repository.MemberRepository read-only
// directory lookup against the member profiles collection.
type mongoMemberRepository struct {
	collection *mongo.Collection
}

// NewMongoMemberRepository creates a new member directory repository backed by MongoDB.
func NewMongoMemberRepository(db *mongo.Database) repository.MemberRepository {
	return &mongoMemberRepository{
		collection: db.Collection(memberCollectionName),
	}
}

// GetByUID retrieves a member profile by uid.
func (r *mongoMemberRepository) GetByUID(ctx context.Context, uid string) (*domain.Member, error) {
	var member domain.Member
	err := r.collection.FindOne(ctx, bson.M{"uid": uid}).Decode(&member)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

// EnsureMemberIndexes creates necessary indexes for the members collection.
// Call once during application startup.
func EnsureMemberIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "uid", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	// Index creation failure is not fatal for serving traffic.
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
