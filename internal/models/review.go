package models

import (
	"strings"
	"time"

	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// ReviewAuthor is the part of a user shown next to a review.
type ReviewAuthor struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// Review is a user's rating of a tour. A user reviews a tour at most once.
type Review struct {
	ID        int64         `json:"id"`
	Review    string        `json:"review" validate:"required,max=2000"`
	Rating    int           `json:"rating" validate:"required,gte=1,lte=5"`
	TourID    int64         `json:"tour" validate:"required,gt=0"`
	UserID    int64         `json:"-"`
	User      *ReviewAuthor `json:"user,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// GetID returns the primary key.
func (r *Review) GetID() int64 { return r.ID }

// BeforeSave trims the review text.
func (r *Review) BeforeSave() {
	r.Review = strings.TrimSpace(r.Review)
	if r.User != nil && r.UserID == 0 {
		r.UserID = r.User.ID
	}
}

// Validate checks the struct rules.
func (r *Review) Validate() error {
	return utils.ValidateStruct(r)
}

// RatingSummary is the aggregate of all reviews of a tour.
type RatingSummary struct {
	TourID   int64
	Quantity int
	Average  float64
}
