package models

import (
	"strings"
	"time"
)

// Profile is the one-to-one researcher record gating submissions.
type Profile struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"-"`
	NationalID      string    `db:"national_id" json:"national_id"`
	Age             int       `db:"age" json:"age"`
	Phone           string    `db:"phone" json:"phone"`
	Degree          string    `db:"degree" json:"degree"`
	University      string    `db:"university" json:"university"`
	ProfileImage    string    `db:"profile_image" json:"-"`
	ProfileComplete bool      `db:"profile_complete" json:"profile_complete"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Complete reports whether every gating field is filled in.
func (p Profile) Complete() bool {
	return strings.TrimSpace(p.NationalID) != "" &&
		strings.TrimSpace(p.Phone) != "" &&
		strings.TrimSpace(p.Degree) != "" &&
		strings.TrimSpace(p.University) != "" &&
		p.Age > 0
}
