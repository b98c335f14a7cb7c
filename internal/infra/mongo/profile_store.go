package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"psych-assessment-service/internal/domain"
)

// CollectionUsers holds one profile document per account, keyed by uid.
const CollectionUsers = "users"

type ProfileStore struct {
	collection *mongo.Collection
}

func NewProfileStore(db *mongo.Database) *ProfileStore {
	return &ProfileStore{collection: db.Collection(CollectionUsers)}
}

// EnsureIndexes makes email unique across profiles.
func (s *ProfileStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("uniq_email").SetUnique(true),
	})
	return err
}

type profileDocument struct {
	UID          string    `bson:"_id"`
	Email        string    `bson:"email"`
	Age          int       `bson:"age"`
	Gender       string    `bson:"gender"`
	PasswordHash []byte    `bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func (s *ProfileStore) CreateProfile(ctx context.Context, profile domain.Profile) error {
	_, err := s.collection.InsertOne(ctx, profileDocument{
		UID:          profile.UID,
		Email:        profile.Email,
		Age:          profile.Age,
		Gender:       profile.Gender,
		PasswordHash: profile.PasswordHash,
		CreatedAt:    profile.CreatedAt.UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) ProfileByEmail(ctx context.Context, email string) (domain.Profile, error) {
	var doc profileDocument
	err := s.collection.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return domain.Profile{
		UID:          doc.UID,
		Email:        doc.Email,
		Age:          doc.Age,
		Gender:       doc.Gender,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt.UTC(),
	}, nil
}

func (s *ProfileStore) DeleteProfile(ctx context.Context, uid string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": uid})
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
