package talent

import (
	"context"
	"errors"
	"fmt"
	"time"

	models "github.com/BANSEOKCHA/my-yks-app/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDB struct {
	mgo          *mongo.Client
	users        *mongo.Collection
	history      *mongo.Collection
	posts        *mongo.Collection
	transactions bool
}

// Transactions need a replica set; turn them off for a standalone server.
func NewMongoDB(uri string, database string, transactions bool) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if uri == "" {
		return nil, fmt.Errorf("mongo uri is not set")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, err
	}
	db := client.Database(database)
	m := &MongoDB{
		mgo:          client,
		users:        db.Collection("users"),
		history:      db.Collection("scoreHistory"),
		posts:        db.Collection("posts"),
		transactions: transactions,
	}
	err = m.ensureIndexes(ctx)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	_, err := m.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "uid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}
	_, err = m.history.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return err
	}
	_, err = m.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

// WriteConflict: another transaction touched the same document
const writeConflictCode = 112

var domainErrors = []error{
	models.ErrNotFound,
	models.ErrAlreadyExists,
	models.ErrConflict,
	models.ErrStorageUnavailable,
	models.ErrInvalidInput,
	models.ErrInvalidCode,
	models.ErrForbidden,
	models.ErrDisabled,
}

// The driver error stays in the chain so WithTransaction still sees its labels.
// A write conflict is a lost race, not an outage.
func unavailable(err error) error {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	var serr mongo.ServerError
	if errors.As(err, &serr) && serr.HasErrorCode(writeConflictCode) {
		return fmt.Errorf("%w: %w", models.ErrConflict, err)
	}
	return fmt.Errorf("%w: %w", models.ErrStorageUnavailable, err)
}

func (m *MongoDB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.transactions || mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	session, err := m.mgo.StartSession()
	if err != nil {
		return unavailable(err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (m *MongoDB) Get(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := m.users.FindOne(ctx, bson.M{"uid": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
		}
		return models.User{}, unavailable(err)
	}
	return user, nil
}

// Matches only while the stored score and both reward days still equal expected
func (m *MongoDB) CompareAndSet(ctx context.Context, userID string, expected models.RewardState, next models.RewardState) error {
	filter := bson.M{
		"uid":          userID,
		"talentScore":  expected.TalentScore,
		"lastPostDate": expected.LastPostRewardDate,
		"lastQRDate":   expected.LastCheckinRewardDate,
	}
	update := bson.M{"$set": bson.M{
		"talentScore":  next.TalentScore,
		"lastPostDate": next.LastPostRewardDate,
		"lastQRDate":   next.LastCheckinRewardDate,
	}}
	result, err := m.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return unavailable(err)
	}
	if result.MatchedCount == 1 {
		return nil
	}
	_, err = m.Get(ctx, userID)
	if err != nil {
		return err
	}
	return fmt.Errorf("user %s: %w", userID, models.ErrConflict)
}

func (m *MongoDB) Create(ctx context.Context, user models.User) error {
	_, err := m.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", user.UID, models.ErrAlreadyExists)
		}
		return unavailable(err)
	}
	return nil
}

func (m *MongoDB) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	result, err := m.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, unavailable(err)
	}
	users := make([]models.User, 0)
	err = result.All(ctx, &users)
	if err != nil {
		return nil, unavailable(err)
	}
	return users, nil
}

func (m *MongoDB) SetDisabled(ctx context.Context, userID string, disabled bool) error {
	result, err := m.users.UpdateOne(ctx, bson.M{"uid": userID}, bson.M{"$set": bson.M{"disabled": disabled}})
	if err != nil {
		return unavailable(err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	return nil
}

func (m *MongoDB) Append(ctx context.Context, userID string, entry models.HistoryEntry) error {
	entry.UserID = userID
	_, err := m.history.InsertOne(ctx, entry)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (m *MongoDB) History(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	result, err := m.history.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, unavailable(err)
	}
	entries := make([]models.HistoryEntry, 0)
	err = result.All(ctx, &entries)
	if err != nil {
		return nil, unavailable(err)
	}
	return entries, nil
}

func (m *MongoDB) CreatePost(ctx context.Context, post models.Post) error {
	_, err := m.posts.InsertOne(ctx, post)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("post %s: %w", post.ID, models.ErrAlreadyExists)
		}
		return unavailable(err)
	}
	return nil
}

func (m *MongoDB) GetPost(ctx context.Context, postID uuid.UUID) (models.Post, error) {
	var post models.Post
	err := m.posts.FindOne(ctx, bson.M{"id": postID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, fmt.Errorf("post %s: %w", postID, models.ErrNotFound)
		}
		return models.Post{}, unavailable(err)
	}
	return post, nil
}

func (m *MongoDB) UpdatePostContent(ctx context.Context, postID uuid.UUID, content string) error {
	result, err := m.posts.UpdateOne(ctx, bson.M{"id": postID}, bson.M{"$set": bson.M{"content": content}})
	if err != nil {
		return unavailable(err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("post %s: %w", postID, models.ErrNotFound)
	}
	return nil
}

func (m *MongoDB) DeletePost(ctx context.Context, postID uuid.UUID) error {
	result, err := m.posts.DeleteOne(ctx, bson.M{"id": postID})
	if err != nil {
		return unavailable(err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("post %s: %w", postID, models.ErrNotFound)
	}
	return nil
}

func (m *MongoDB) ListPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["userId"] = filter.UserID
	}
	if filter.PublicOnly {
		query["isPublic"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	result, err := m.posts.Find(ctx, query, opts)
	if err != nil {
		return nil, unavailable(err)
	}
	posts := make([]models.Post, 0)
	err = result.All(ctx, &posts)
	if err != nil {
		return nil, unavailable(err)
	}
	return posts, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.mgo.Disconnect(ctx)
}
