package entity

import "time"

type PushSubscription struct {
	Endpoint string `json:"endpoint" firestore:"endpoint"`
	P256dh   string `json:"p256dh" firestore:"p256dh"`
	Auth     string `json:"auth" firestore:"auth"`
}

type User struct {
	ID           string `json:"id" firestore:"id"`
	Name         string `json:"name" firestore:"name"`
	Username     string `json:"username" firestore:"username"`
	PasswordHash string `json:"-" firestore:"passwordHash"`
	College      string `json:"college,omitempty" firestore:"college,omitempty"`
	Year         string `json:"year,omitempty" firestore:"year,omitempty"`
	Gender       string `json:"gender,omitempty" firestore:"gender,omitempty"`
	Role         string `json:"role" firestore:"role"`

	PushSubscription *PushSubscription `json:"-" firestore:"pushSubscription,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
