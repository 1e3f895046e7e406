package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/devkrol/sociogram/internal/guard"
	"github.com/devkrol/sociogram/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	SearchUsersByLogin(ctx context.Context, prefix string) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	SetProfilePic(ctx context.Context, id primitive.ObjectID, ref string) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error

	AddFollowEdge(ctx context.Context, follower, followee primitive.ObjectID) error
	RemoveFollowEdge(ctx context.Context, follower, followee primitive.ObjectID) error
	RemoveUserFromFollowSets(ctx context.Context, id primitive.ObjectID) error
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// CreateUser inserts a new user document
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

// GetUserByID retrieves a user by id
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetUserByLogin retrieves a user by normalized login
func (r *MongoUserRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"login": models.NormalizeLogin(login)})
}

// GetUserByEmail retrieves a user by normalized email
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": models.NormalizeEmail(email)})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("user: %w", guard.ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs retrieves several users at once, for reference resolution.
// Missing ids are silently skipped (deleted users).
func (r *MongoUserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SearchUsersByLogin performs a case-insensitive prefix search on logins
func (r *MongoUserRepository) SearchUsersByLogin(ctx context.Context, prefix string) ([]models.User, error) {
	filter := bson.M{"login": bson.M{"$regex": "^" + escapeRegex(models.NormalizeLogin(prefix))}}
	findOptions := options.Find().SetSort(bson.D{{Key: "login", Value: 1}}).SetLimit(50)
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser replaces the mutable profile fields of an existing user
func (r *MongoUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"login":      user.Login,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"bio":        user.Bio,
		"updated_at": user.UpdatedAt,
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user: %w", guard.ErrNotFound)
	}
	return nil
}

// SetProfilePic updates only the profile picture reference (empty clears it)
func (r *MongoUserRepository) SetProfilePic(ctx context.Context, id primitive.ObjectID, ref string) error {
	update := bson.M{"$set": bson.M{"profile_pic": ref, "updated_at": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user: %w", guard.ErrNotFound)
	}
	return nil
}

// DeleteUser removes a user document
func (r *MongoUserRepository) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("user: %w", guard.ErrNotFound)
	}
	return nil
}

// AddFollowEdge records that follower follows followee on both documents.
// $addToSet keeps the sets duplicate-free under concurrent toggles. The two
// writes are not transactional; a failure between them leaves a half edge
// that is logged, not compensated.
func (r *MongoUserRepository) AddFollowEdge(ctx context.Context, follower, followee primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": followee},
		bson.M{"$addToSet": bson.M{"followers": follower}})
	if err != nil {
		return fmt.Errorf("adding follower to followee: %w", err)
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": follower},
		bson.M{"$addToSet": bson.M{"following": followee}})
	if err != nil {
		return fmt.Errorf("adding followee to follower after followers side was written: %w", err)
	}
	return nil
}

// RemoveFollowEdge removes the follow relationship from both documents
func (r *MongoUserRepository) RemoveFollowEdge(ctx context.Context, follower, followee primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": followee},
		bson.M{"$pull": bson.M{"followers": follower}})
	if err != nil {
		return fmt.Errorf("removing follower from followee: %w", err)
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": follower},
		bson.M{"$pull": bson.M{"following": followee}})
	if err != nil {
		return fmt.Errorf("removing followee from follower after followers side was written: %w", err)
	}
	return nil
}

// RemoveUserFromFollowSets pulls a deleted user's id out of every other
// user's followers/following arrays.
func (r *MongoUserRepository) RemoveUserFromFollowSets(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx, bson.M{},
		bson.M{"$pull": bson.M{"followers": id, "following": id}})
	return err
}

// escapeRegex quotes regex metacharacters in user-supplied search input
func escapeRegex(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '.', '+', '*', '?', '(', ')', '[', ']', '{', '}', '^', '$', '|', '\\':
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
