package entity

import "time"

// Message is owned by its parent Conversation and is only ever appended,
// never edited or removed.
type Message struct {
	ID        string    `json:"id" firestore:"id"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Text      string    `json:"text" firestore:"text"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// Conversation is the persistent thread for one (item, buyer, seller)
// triple. Messages are embedded in the document so that appending a
// message, bumping the unread counter and clearing the hidden flags is a
// single atomic document update.
type Conversation struct {
	ID       string `json:"id" firestore:"id"`
	ItemID   string `json:"item_id" firestore:"itemId"`
	BuyerID  string `json:"buyer_id" firestore:"buyerId"`
	SellerID string `json:"seller_id" firestore:"sellerId"`

	Messages []Message `json:"messages" firestore:"messages"`

	// UnreadCount is a single shared counter, not per participant. Every
	// send increments it and opening the thread resets it, whoever opens.
	UnreadCount int `json:"unread_count" firestore:"unreadCount"`

	// Per-side soft-delete flags. Hiding only removes the thread from the
	// hiding side's inbox; a new message clears both flags.
	HiddenByBuyer  bool `json:"hidden_by_buyer" firestore:"hiddenByBuyer"`
	HiddenBySeller bool `json:"hidden_by_seller" firestore:"hiddenBySeller"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (c *Conversation) IsParticipant(userID string) bool {
	return userID == c.BuyerID || userID == c.SellerID
}

func (c *Conversation) OtherParticipant(userID string) string {
	if userID == c.BuyerID {
		return c.SellerID
	}
	return c.BuyerID
}

func (c *Conversation) HiddenFor(userID string) bool {
	if userID == c.BuyerID {
		return c.HiddenByBuyer
	}
	if userID == c.SellerID {
		return c.HiddenBySeller
	}
	return false
}
