package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment represents a comment on a post, stored in MongoDB. It carries a
// back-reference to its parent post, used for cascade cleanup.
type Comment struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Post      primitive.ObjectID   `json:"post" bson:"post"`
	Author    primitive.ObjectID   `json:"author" bson:"author"`
	Text      string               `json:"text" bson:"text"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"`
}

// CreateCommentRequest defines the request body for creating a comment
type CreateCommentRequest struct {
	PostID string `json:"post_id" validate:"required,len=24,hexadecimal"`
	Text   string `json:"text" validate:"required,min=1,max=1000"`
}

// UpdateCommentRequest defines the request body for editing a comment
type UpdateCommentRequest struct {
	ID   string `json:"id" validate:"required,len=24,hexadecimal"`
	Text string `json:"text" validate:"required,min=1,max=1000"`
}

// CommentIDRequest identifies a comment for like/delete operations
type CommentIDRequest struct {
	ID string `json:"id" validate:"required,len=24,hexadecimal"`
}
