package entity

import "time"

type Ad struct {
	ID          string `json:"id" firestore:"id"`
	Title       string `json:"title" firestore:"title"`
	Description string `json:"description,omitempty" firestore:"description,omitempty"`
	Link        string `json:"link" firestore:"link"`
	CreatedBy   string `json:"created_by" firestore:"createdBy"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
