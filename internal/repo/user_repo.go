package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/ayamekni/AfriOffres/internal/domain"
	"github.com/ayamekni/AfriOffres/internal/helper"
)

func (s *Store) findUser(ctx context.Context, q bson.M) (*domain.User, error) {
	var u domain.User
	err := s.colUsers.FindOne(ctx, q).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (u *domain.User, err error) {
	sp, ctx := startSpan(ctx, "mongo.users.find_by_email", tracer.Tag("email_hash", helper.Hash8(email)))
	defer func() { finish(sp, err) }()
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) FindUserByID(ctx context.Context, id primitive.ObjectID) (u *domain.User, err error) {
	sp, ctx := startSpan(ctx, "mongo.users.find_by_id", tracer.Tag("user_id", id.Hex()))
	defer func() { finish(sp, err) }()
	return s.findUser(ctx, bson.M{"_id": id})
}

// CreateUser inserts u and fills in its ID. ErrDuplicate means the email is taken.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) (err error) {
	sp, ctx := startSpan(ctx, "mongo.users.insert", tracer.Tag("provider", u.Provider))
	defer func() { finish(sp, err) }()

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Preferences == nil {
		u.Preferences = domain.Preferences{}
	}
	res, err := s.colUsers.InsertOne(ctx, u)
	if IsDup(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

// UpdateUserFields $sets fields on the user and returns the stored result.
// A user that exists but is unchanged by the update is still found.
func (s *Store) UpdateUserFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) (u *domain.User, err error) {
	sp, ctx := startSpan(ctx, "mongo.users.update", tracer.Tag("user_id", id.Hex()))
	defer func() { finish(sp, err) }()

	var out domain.User
	err = s.colUsers.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &out, nil
}

// ListNotifiableUsers returns users who opted in to tender notifications.
func (s *Store) ListNotifiableUsers(ctx context.Context) (users []domain.User, err error) {
	sp, ctx := startSpan(ctx, "mongo.users.notifiable")
	defer func() { finish(sp, err) }()

	cur, err := s.colUsers.Find(ctx, bson.M{"notifications_enabled": true},
		options.Find().SetProjection(bson.M{"password": 0}))
	if err != nil {
		return nil, fmt.Errorf("find notifiable users: %w", err)
	}
	defer cur.Close(ctx)
	if err = cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpsertExternalUser finds the user by email or creates one for an external
// identity provider, and links the provider subject to it. created reports
// whether the account did not exist before.
func (s *Store) UpsertExternalUser(ctx context.Context, provider, subject, email, firstName, lastName string) (u *domain.User, created bool, err error) {
	sp, ctx := startSpan(ctx, "mongo.users.upsert_external", tracer.Tag("provider", provider))
	defer func() { finish(sp, err) }()

	update := bson.M{
		"$set": bson.M{"external_id": subject},
		"$setOnInsert": bson.M{
			"first_name":            firstName,
			"last_name":             lastName,
			"preferences":           bson.M{},
			"notifications_enabled": true,
			"provider":              provider,
			"created_at":            time.Now().UTC(),
		},
	}
	q := bson.M{"email": email}
	res, err := s.colUsers.UpdateOne(ctx, q, update, options.Update().SetUpsert(true))
	if IsDup(err) {
		// lost an insert race for the same email; the other writer created it
		res, err = s.colUsers.UpdateOne(ctx, q, update)
	}
	if err != nil {
		return nil, false, fmt.Errorf("upsert external user: %w", err)
	}
	if u, err = s.findUser(ctx, q); err != nil {
		return nil, false, err
	}
	return u, res.UpsertedCount > 0, nil
}

func (s *Store) CountUsersByEmail(ctx context.Context, email string) (int64, error) {
	return s.colUsers.CountDocuments(ctx, bson.M{"email": email})
}
