package model

import "time"

// User represents a registered account.
//
// Two ways in: GitHub OAuth (GitHubID set, PasswordHash empty) or a local
// login/password registration (GitHubID zero, PasswordHash set). Either way
// we generate our own internal string ID (xid) so primary keys are never
// tied to a third party's numbering scheme.
//
// PasswordHash is the bcrypt output for local accounts and must never be
// serialised; the json:"-" tag keeps it out of every API response.
type User struct {
	ID           string    `json:"id"        db:"id"`
	GitHubID     int64     `json:"-"         db:"github_id"` // 0 for local accounts
	Login        string    `json:"login"     db:"login"`
	Email        string    `json:"email"     db:"email"` // may be empty (hidden on GitHub)
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
