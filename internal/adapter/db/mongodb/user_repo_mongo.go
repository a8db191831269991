package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"user-service/internal/domain/user"
)

const (
	usersCollection = "users"
	notesCollection = "notes"
)

// userDocument is the BSON shape of a stored user.
type userDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Password string             `bson:"password"` // bcrypt hash
	Roles    []string           `bson:"roles"`
	Active   bool               `bson:"active"`
}

func (d userDocument) toDomain() user.User {
	return user.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.Password,
		Roles:        d.Roles,
		Active:       d.Active,
	}
}

// UserRepoMongo implements the user Repository interface on a MongoDB
// collection. IDs are ObjectID hex strings.
type UserRepoMongo struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// NewUserRepoMongo creates a repository over the users collection of db.
func NewUserRepoMongo(db *mongo.Database, log *zap.Logger) *UserRepoMongo {
	return &UserRepoMongo{coll: db.Collection(usersCollection), log: log}
}

// EnsureIndexes creates the unique username index and the note owner index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create username index: %w", err)
	}

	_, err = db.Collection(notesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create note owner index: %w", err)
	}
	return nil
}

func translate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", user.ErrDuplicateUsername, err)
	}
	return err
}

// Create inserts a new user document.
func (r *UserRepoMongo) Create(ctx context.Context, u *user.User) (string, error) {
	if u == nil {
		return "", errors.New("user cannot be nil")
	}

	res, err := r.coll.InsertOne(ctx, userDocument{
		Username: u.Username,
		Password: u.PasswordHash,
		Roles:    u.Roles,
		Active:   u.Active,
	})
	if err != nil {
		r.log.Error("failed to create user in mongo", zap.Error(err), zap.String("username", u.Username))
		return "", fmt.Errorf("failed to create user: %w", translate(err))
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}

	r.log.Info("user created in mongo", zap.String("id", oid.Hex()))
	return oid.Hex(), nil
}

// Update replaces the stored document of an existing user.
func (r *UserRepoMongo) Update(ctx context.Context, u *user.User) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}

	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", u.ID, err)
	}

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, userDocument{
		ID:       oid,
		Username: u.Username,
		Password: u.PasswordHash,
		Roles:    u.Roles,
		Active:   u.Active,
	})
	if err != nil {
		r.log.Error("failed to update user in mongo", zap.Error(err), zap.String("id", u.ID))
		return fmt.Errorf("failed to update user: %w", translate(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to update user %s: %w", u.ID, user.ErrUserNotFound)
	}

	r.log.Info("user updated in mongo", zap.String("id", u.ID))
	return nil
}

// Delete removes a user document by ID.
func (r *UserRepoMongo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", id, err)
	}

	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		r.log.Error("failed to delete user in mongo", zap.Error(err), zap.String("id", id))
		return fmt.Errorf("failed to delete user: %w", err)
	}

	r.log.Info("user deleted in mongo", zap.String("id", id))
	return nil
}

// GetByID retrieves a user by ID. Malformed IDs match nothing, so they
// return (nil, nil) like any other miss.
func (r *UserRepoMongo) GetByID(ctx context.Context, id string) (*user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		r.log.Debug("malformed user id", zap.String("id", id))
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepoMongo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepoMongo) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.log.Error("failed to find user in mongo", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u := doc.toDomain()
	return &u, nil
}

// List retrieves every user without the password field.
func (r *UserRepoMongo) List(ctx context.Context) ([]user.User, error) {
	opts := options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.D{{Key: "username", Value: 1}})

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.log.Error("failed to list users from mongo", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]user.User, len(docs))
	for i, d := range docs {
		users[i] = d.toDomain()
	}
	return users, nil
}
