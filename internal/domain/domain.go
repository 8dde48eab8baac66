package domain

import "time"

// Account is the non-secret part of a session.
type Account struct {
	DID    string
	Handle string
	Host   string
}

// Post is the last popular post shown on the display. Date is kept as the
// ISO-8601 string the server sent.
type Post struct {
	Handle string
	Name   string
	Date   string
	Text   string
}

type Unread struct {
	Count     int
	CheckedAt time.Time
}

type Snapshot struct {
	Account Account
	Post    Post
	Unread  Unread
}
