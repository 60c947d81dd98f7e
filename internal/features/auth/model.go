package auth

import (
	"time"
)

// Profile is the per-user record kept next to the Firebase account.
// ID is the Firebase UID.
type Profile struct {
	ID             string    `bson:"_id" gorm:"primaryKey;size:128" json:"id"`
	Email          string    `bson:"email" gorm:"size:320;uniqueIndex;not null" json:"email"`
	Points         int       `bson:"points" gorm:"not null;default:0" json:"points"`
	IsAdmin        bool      `bson:"is_admin" gorm:"not null;default:false" json:"isAdmin"`
	ProfileImage   string    `bson:"profile_image" gorm:"type:text" json:"profileImage,omitempty"`
	SessionVersion int       `bson:"session_version" gorm:"not null;default:0" json:"-"`
	CreatedAt      time.Time `bson:"created_at" gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updated_at" gorm:"not null" json:"updatedAt"`
}

func (Profile) TableName() string { return "profiles" }

// CurrentUser is the authenticated caller handed to every workflow
type CurrentUser struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Admin          bool   `json:"admin"`
	SessionVersion int    `json:"-"`
}

// SignUpRequest represents the payload for creating an account
type SignUpRequest struct {
	Email    string `json:"email" binding:"required" example:"reporter@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret-Passw0rd"`
}

// SignInRequest represents the payload for password sign-in
type SignInRequest struct {
	Email    string `json:"email" binding:"required" example:"reporter@example.com"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Profile     *Profile `json:"profile"`
	AccessToken string   `json:"accessToken"`
}
