package models

import (
	"errors"
	"time"
)

type ActivityCategory string

const (
	CategorySports        ActivityCategory = "sports"
	CategoryGaming        ActivityCategory = "gaming"
	CategoryStudy         ActivityCategory = "study"
	CategoryDining        ActivityCategory = "dining"
	CategoryEntertainment ActivityCategory = "entertainment"
	CategoryOther         ActivityCategory = "other"
)

var Categories = []ActivityCategory{
	CategorySports,
	CategoryGaming,
	CategoryStudy,
	CategoryDining,
	CategoryEntertainment,
	CategoryOther,
}

func (c ActivityCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Roster errors. The messages are returned to clients verbatim.
var (
	ErrAlreadyParticipant = errors.New("You are already a participant in this activity")
	ErrActivityFull       = errors.New("This activity is already full")
	ErrNotParticipant     = errors.New("You are not a participant in this activity")
)

type Activity struct {
	ID              string           `json:"id" bson:"_id"`
	Name            string           `json:"name" bson:"name"`
	Description     string           `json:"description" bson:"description"`
	Category        ActivityCategory `json:"category" bson:"category"`
	Location        string           `json:"location" bson:"location"`
	Image           string           `json:"image" bson:"image"`
	MaxParticipants int              `json:"max_participants" bson:"max_participants"`
	CreatorID       string           `json:"creator_id" bson:"creator_id"`
	Participants    []string         `json:"participants" bson:"participants"`
	StartTime       *time.Time       `json:"start_time,omitempty" bson:"start_time,omitempty"`
	EndTime         *time.Time       `json:"end_time,omitempty" bson:"end_time,omitempty"`
	IsActive        bool             `json:"is_active" bson:"is_active"`
	Revision        int64            `json:"-" bson:"revision"`
	CreatedAt       time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" bson:"updated_at"`
}

// IsFull reports whether the roster has reached its cap. A cap of 0 means unlimited.
func (a *Activity) IsFull() bool {
	return a.MaxParticipants > 0 && len(a.Participants) >= a.MaxParticipants
}

func (a *Activity) HasParticipant(userID string) bool {
	for _, id := range a.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

func (a *Activity) AddParticipant(userID string) error {
	if a.HasParticipant(userID) {
		return ErrAlreadyParticipant
	}
	if a.IsFull() {
		return ErrActivityFull
	}
	a.Participants = append(a.Participants, userID)
	return nil
}

func (a *Activity) RemoveParticipant(userID string) error {
	for i, id := range a.Participants {
		if id == userID {
			a.Participants = append(a.Participants[:i], a.Participants[i+1:]...)
			return nil
		}
	}
	return ErrNotParticipant
}

// EnsureCreatorParticipant puts the creator at the head of the roster if absent.
// Only called when the activity is first created.
func (a *Activity) EnsureCreatorParticipant() {
	if a.CreatorID == "" || a.HasParticipant(a.CreatorID) {
		return
	}
	a.Participants = append([]string{a.CreatorID}, a.Participants...)
}

func (a *Activity) Clone() *Activity {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Participants = append([]string(nil), a.Participants...)
	if a.StartTime != nil {
		t := *a.StartTime
		cp.StartTime = &t
	}
	if a.EndTime != nil {
		t := *a.EndTime
		cp.EndTime = &t
	}
	return &cp
}

type ActivityResponse struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	Category         ActivityCategory `json:"category"`
	Location         string           `json:"location"`
	Image            string           `json:"image"`
	MaxParticipants  int              `json:"max_participants"`
	ParticipantCount int              `json:"participant_count"`
	Creator          *UserSummary     `json:"creator"`
	Participants     []UserSummary    `json:"participants"`
	StartTime        *time.Time       `json:"start_time,omitempty"`
	EndTime          *time.Time       `json:"end_time,omitempty"`
	IsActive         bool             `json:"is_active"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ToResponse expands participant ids using users. Ids missing from users are
// skipped; the count still reflects the stored roster.
func (a *Activity) ToResponse(users map[string]*User) ActivityResponse {
	resp := ActivityResponse{
		ID:               a.ID,
		Name:             a.Name,
		Description:      a.Description,
		Category:         a.Category,
		Location:         a.Location,
		Image:            a.Image,
		MaxParticipants:  a.MaxParticipants,
		ParticipantCount: len(a.Participants),
		Participants:     make([]UserSummary, 0, len(a.Participants)),
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		IsActive:         a.IsActive,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if u, ok := users[a.CreatorID]; ok {
		s := u.ToSummary()
		resp.Creator = &s
	}
	for _, id := range a.Participants {
		if u, ok := users[id]; ok {
			resp.Participants = append(resp.Participants, u.ToSummary())
		}
	}
	return resp
}
