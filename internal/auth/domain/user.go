package domain

import "time"

// User is an account whose mailbox feeds a board. Accounts are created by the
// sign-in service; this backend only reads them and rotates Gmail tokens.
type User struct {
	ID        string `json:"id" gorm:"primaryKey"`
	Email     string `json:"email" gorm:"uniqueIndex;not null"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`

	// Gmail OAuth credentials, never serialized
	GmailAccessToken  string `json:"-"`
	GmailRefreshToken string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasMailbox reports whether the user connected a Gmail account
func (u *User) HasMailbox() bool {
	return u.GmailRefreshToken != ""
}
