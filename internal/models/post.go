package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a social media post stored in MongoDB. Likes is a set of
// user ids (no duplicates); Comments keeps comment ids in insertion order.
type Post struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Author    primitive.ObjectID   `json:"author" bson:"author"`
	Content   string               `json:"content" bson:"content"`
	Images    []string             `json:"images" bson:"images"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	Comments  []primitive.ObjectID `json:"comments" bson:"comments"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"`
}

// CreatePostRequest defines the multipart form fields for creating a post.
// Image files arrive as multipart attachments under the "images" field.
type CreatePostRequest struct {
	Content string `form:"content" validate:"max=2000"`
}

// UpdatePostRequest defines the multipart form fields for editing a post
type UpdatePostRequest struct {
	ID      string `form:"id" validate:"required,len=24,hexadecimal"`
	Content string `form:"content" validate:"max=2000"`
}

// PostIDRequest identifies a post for like/delete operations
type PostIDRequest struct {
	ID string `json:"id" form:"id" validate:"required,len=24,hexadecimal"`
}
