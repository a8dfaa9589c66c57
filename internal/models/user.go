package models

import (
	"time"
)

type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	College      string    `json:"college" bson:"college"`
	Bio          string    `json:"bio" bson:"bio"`
	Avatar       string    `json:"avatar" bson:"avatar"`
	AvatarKey    string    `json:"-" bson:"avatar_key"`
	Interests    []string  `json:"interests" bson:"interests"`
	IsOnline     bool      `json:"is_online" bson:"is_online"`
	LastActive   time.Time `json:"last_active" bson:"last_active"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

type UserResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	College    string    `json:"college"`
	Bio        string    `json:"bio"`
	Avatar     string    `json:"avatar"`
	Interests  []string  `json:"interests"`
	IsOnline   bool      `json:"is_online"`
	LastActive time.Time `json:"last_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserSummary is the embedded form used inside activities and conversations.
type UserSummary struct {
	ID         string    `json:"id" msgpack:"id"`
	Name       string    `json:"name" msgpack:"name"`
	Avatar     string    `json:"avatar" msgpack:"avatar"`
	College    string    `json:"college" msgpack:"college"`
	IsOnline   bool      `json:"is_online" msgpack:"is_online"`
	LastActive time.Time `json:"last_active" msgpack:"last_active"`
}

func (u *User) ToResponse() UserResponse {
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		College:    u.College,
		Bio:        u.Bio,
		Avatar:     u.Avatar,
		Interests:  interests,
		IsOnline:   u.IsOnline,
		LastActive: u.LastActive,
		CreatedAt:  u.CreatedAt,
	}
}

func (u *User) ToSummary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Avatar:     u.Avatar,
		College:    u.College,
		IsOnline:   u.IsOnline,
		LastActive: u.LastActive,
	}
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Interests = append([]string(nil), u.Interests...)
	return &cp
}
