package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered account stored in MongoDB. The followers and
// following arrays are kept symmetric across both users' documents and never
// contain the user's own id.
type User struct {
	ID         primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Login      string               `json:"login" bson:"login"`
	Email      string               `json:"email" bson:"email"`
	Password   string               `json:"-" bson:"password"` // bcrypt hash, never serialized
	FirstName  string               `json:"firstName,omitempty" bson:"first_name,omitempty"`
	LastName   string               `json:"lastName,omitempty" bson:"last_name,omitempty"`
	BirthDate  time.Time            `json:"birthDate" bson:"birth_date"`
	Bio        string               `json:"bio,omitempty" bson:"bio,omitempty"`
	ProfilePic string               `json:"profilePic,omitempty" bson:"profile_pic,omitempty"`
	Followers  []primitive.ObjectID `json:"followers" bson:"followers"`
	Following  []primitive.ObjectID `json:"following" bson:"following"`
	CreatedAt  time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at" bson:"updated_at"`
}

// UserCompact is the minimal projection used when resolving references
// (post authors, notification actors, search results).
type UserCompact struct {
	ID         string `json:"id"`
	Login      string `json:"login"`
	ProfilePic string `json:"profilePic,omitempty"`
}

// ToCompact returns the minimal projection of the user
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:         u.ID.Hex(),
		Login:      u.Login,
		ProfilePic: u.ProfilePic,
	}
}

// NormalizeLogin lowercases and trims a login so uniqueness checks are
// case-insensitive.
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterRequest defines the request body for user registration
type RegisterRequest struct {
	Login     string    `json:"login" validate:"required,min=3,max=30,alphanum"`
	Email     string    `json:"email" validate:"required,email"`
	Password  string    `json:"password" validate:"required,min=8,max=72"`
	FirstName string    `json:"firstName,omitempty" validate:"omitempty,max=50"`
	LastName  string    `json:"lastName,omitempty" validate:"omitempty,max=50"`
	BirthDate time.Time `json:"birthDate" validate:"required"`
	Bio       string    `json:"bio,omitempty" validate:"omitempty,max=1000"`
}

// LoginRequest defines the request body for user login
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest defines the request body for editing a profile.
// Password changes are deliberately not accepted here.
type UpdateUserRequest struct {
	Login     string `json:"login,omitempty" validate:"omitempty,min=3,max=30,alphanum"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName string `json:"firstName,omitempty" validate:"omitempty,max=50"`
	LastName  string `json:"lastName,omitempty" validate:"omitempty,max=50"`
	Bio       string `json:"bio,omitempty" validate:"omitempty,max=1000"`
}

// FollowRequest defines the request body for the follow toggle
type FollowRequest struct {
	Login string `json:"login" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Login  string `json:"login"`
	jwt.RegisteredClaims
}
