package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is the permanent record committed when onboarding reaches Ready.
// The saga's temp fields are consumed into it and then discarded.
type UserProfile struct {
	ID                 uuid.UUID `json:"id"` // equals the onboarding correlation id
	FullName           string    `json:"full_name"`
	Nin                string    `json:"nin"`
	Bvn                string    `json:"bvn"`
	PhoneNumber        string    `json:"phone_number"`
	TransactionPINHash string    `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
