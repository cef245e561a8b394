package model

import "time"

// Partner task status constants. A task starts pending and is resolved by
// the invitee; nothing returns a resolved task to pending.
const (
	PartnerStatusPending  = "pending"
	PartnerStatusAccepted = "accepted"
	PartnerStatusDeclined = "declined"
)

type PartnerTask struct {
	ID          int64     `json:"id"`
	CreatorID   int64     `json:"creator_id"`
	PartnerID   int64     `json:"partner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PartnerTaskCompletion is one participant's proof for one day. A day only
// counts toward the joint streak when both participants have a row for it.
type PartnerTaskCompletion struct {
	ID             int64     `json:"id"`
	PartnerTaskID  int64     `json:"partner_task_id"`
	ProfileID      int64     `json:"profile_id"`
	CompletionDate string    `json:"completion_date"`
	PhotoURL       string    `json:"photo_url"`
	CreatedAt      time.Time `json:"created_at"`
}
