package models

type User struct {
	Id           string
	Name         string
	Email        string
	PasswordHash string
	Sessions     []Session
	Created      int64
	Updated      int64
}

// Session is one issued auth token for one logged-in device.
// ExpiresAt is unix seconds, set once at issuance and never mutated.
type Session struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type Note struct {
	Id      string `json:"id"`
	OwnerId string `json:"-"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Created int64  `json:"created"`
	Updated int64  `json:"updated"`
}
