package entity

import "time"

type Item struct {
	ID          string  `json:"id" firestore:"id"`
	SellerID    string  `json:"seller_id" firestore:"sellerId"`
	Title       string  `json:"title" firestore:"title"`
	Description string  `json:"description" firestore:"description"`
	Price       float64 `json:"price" firestore:"price"`
	Category    string  `json:"category" firestore:"category"`
	ImageURL    string  `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	Sold        bool    `json:"sold" firestore:"sold"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
