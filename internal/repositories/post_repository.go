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

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	GetAllPosts(ctx context.Context) ([]models.Post, error)
	GetPostsByAuthor(ctx context.Context, author primitive.ObjectID) ([]models.Post, error)
	UpdateContent(ctx context.Context, id primitive.ObjectID, content string) error
	SetImages(ctx context.Context, id primitive.ObjectID, images []string) error
	DeletePost(ctx context.Context, id primitive.ObjectID) error

	AddLike(ctx context.Context, id, user primitive.ObjectID) error
	RemoveLike(ctx context.Context, id, user primitive.ObjectID) error
	RemoveLikesBy(ctx context.Context, user primitive.ObjectID) error

	AddComment(ctx context.Context, id, commentID primitive.ObjectID) error
	RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost inserts a new post document
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = time.Now()
	if post.Images == nil {
		post.Images = []string{}
	}
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []primitive.ObjectID{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by id
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("post: %w", guard.ErrNotFound)
		}
		return nil, err
	}
	return &post, nil
}

// GetAllPosts retrieves all posts, most recently updated first
func (r *MongoPostRepository) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	return r.find(ctx, bson.M{})
}

// GetPostsByAuthor retrieves all posts by one author
func (r *MongoPostRepository) GetPostsByAuthor(ctx context.Context, author primitive.ObjectID) ([]models.Post, error) {
	return r.find(ctx, bson.M{"author": author})
}

func (r *MongoPostRepository) find(ctx context.Context, filter bson.M) ([]models.Post, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdateContent replaces the text content of a post
func (r *MongoPostRepository) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) error {
	update := bson.M{"$set": bson.M{"content": content, "updated_at": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("post: %w", guard.ErrNotFound)
	}
	return nil
}

// SetImages replaces the stored image references of a post
func (r *MongoPostRepository) SetImages(ctx context.Context, id primitive.ObjectID, images []string) error {
	if images == nil {
		images = []string{}
	}
	update := bson.M{"$set": bson.M{"images": images, "updated_at": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("post: %w", guard.ErrNotFound)
	}
	return nil
}

// DeletePost removes a post document
func (r *MongoPostRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("post: %w", guard.ErrNotFound)
	}
	return nil
}

// AddLike adds a user to the post's like set. $addToSet is atomic per
// document, so racing toggles from the same actor converge.
func (r *MongoPostRepository) AddLike(ctx context.Context, id, user primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"likes": user}})
	return err
}

// RemoveLike removes a user from the post's like set
func (r *MongoPostRepository) RemoveLike(ctx context.Context, id, user primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$pull": bson.M{"likes": user}})
	return err
}

// RemoveLikesBy pulls a deleted user's id from every post's like set
func (r *MongoPostRepository) RemoveLikesBy(ctx context.Context, user primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx, bson.M{},
		bson.M{"$pull": bson.M{"likes": user}})
	return err
}

// AddComment appends a comment id to the post's ordered comment list
func (r *MongoPostRepository) AddComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$push": bson.M{"comments": commentID}})
	return err
}

// RemoveComment pulls a comment id from the post's comment list
func (r *MongoPostRepository) RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$pull": bson.M{"comments": commentID}})
	return err
}
