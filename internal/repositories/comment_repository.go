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

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	GetCommentsByPostIDs(ctx context.Context, postIDs []primitive.ObjectID) ([]models.Comment, error)
	GetCommentsByAuthor(ctx context.Context, author primitive.ObjectID) ([]models.Comment, error)
	UpdateText(ctx context.Context, id primitive.ObjectID, text string) error
	DeleteComment(ctx context.Context, id primitive.ObjectID) error
	DeleteCommentsByPost(ctx context.Context, postID primitive.ObjectID) error

	AddLike(ctx context.Context, id, user primitive.ObjectID) error
	RemoveLike(ctx context.Context, id, user primitive.ObjectID) error
	RemoveLikesBy(ctx context.Context, user primitive.ObjectID) error
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection("comments")}
}

// CreateComment inserts a new comment document
func (r *MongoCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = time.Now()
	if comment.Likes == nil {
		comment.Likes = []primitive.ObjectID{}
	}
	_, err := r.collection.InsertOne(ctx, comment)
	return err
}

// GetCommentByID retrieves a comment by id
func (r *MongoCommentRepository) GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("comment: %w", guard.ErrNotFound)
		}
		return nil, err
	}
	return &comment, nil
}

// GetCommentsByPostIDs retrieves the comments of several posts at once,
// oldest first (insertion order equals chronological order).
func (r *MongoCommentRepository) GetCommentsByPostIDs(ctx context.Context, postIDs []primitive.ObjectID) ([]models.Comment, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"post": bson.M{"$in": postIDs}})
}

// GetCommentsByAuthor retrieves all comments written by one user
func (r *MongoCommentRepository) GetCommentsByAuthor(ctx context.Context, author primitive.ObjectID) ([]models.Comment, error) {
	return r.find(ctx, bson.M{"author": author})
}

func (r *MongoCommentRepository) find(ctx context.Context, filter bson.M) ([]models.Comment, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	if err = cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// UpdateText replaces the text of a comment
func (r *MongoCommentRepository) UpdateText(ctx context.Context, id primitive.ObjectID, text string) error {
	update := bson.M{"$set": bson.M{"text": text, "updated_at": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("comment: %w", guard.ErrNotFound)
	}
	return nil
}

// DeleteComment removes a comment document
func (r *MongoCommentRepository) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("comment: %w", guard.ErrNotFound)
	}
	return nil
}

// DeleteCommentsByPost removes all comments referencing a post (cascade)
func (r *MongoCommentRepository) DeleteCommentsByPost(ctx context.Context, postID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"post": postID})
	return err
}

// AddLike adds a user to the comment's like set
func (r *MongoCommentRepository) AddLike(ctx context.Context, id, user primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"likes": user}})
	return err
}

// RemoveLike removes a user from the comment's like set
func (r *MongoCommentRepository) RemoveLike(ctx context.Context, id, user primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$pull": bson.M{"likes": user}})
	return err
}

// RemoveLikesBy pulls a deleted user's id from every comment's like set
func (r *MongoCommentRepository) RemoveLikesBy(ctx context.Context, user primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx, bson.M{},
		bson.M{"$pull": bson.M{"likes": user}})
	return err
}
