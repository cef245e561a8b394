package model

import "time"

const (
	FriendshipRequested = "requested"
	FriendshipConfirmed = "confirmed"
)

type Friendship struct {
	ID          int64     `json:"id"`
	RequesterID int64     `json:"requester_id"`
	AddresseeID int64     `json:"addressee_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
