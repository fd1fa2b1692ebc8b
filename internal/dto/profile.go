package dto

// ProfileUser is the nested account summary on a profile.
type ProfileUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	UserCategory string `json:"user_category"`
	IsStaff      bool   `json:"is_staff"`
}

// ProfileResponse is the researcher profile as shown to its owner.
type ProfileResponse struct {
	ID              string      `json:"id"`
	User            ProfileUser `json:"user"`
	NationalID      string      `json:"national_id"`
	Age             int         `json:"age"`
	Phone           string      `json:"phone"`
	Degree          string      `json:"degree"`
	University      string      `json:"university"`
	ProfileImage    *string     `json:"profile_image"`
	ProfileComplete bool        `json:"profile_complete"`
}

// UpdateProfileRequest is a partial profile update; nil fields are unchanged.
// profile_complete is derived and never read from the payload.
type UpdateProfileRequest struct {
	NationalID *string `form:"national_id" json:"national_id" validate:"omitempty,max=64"`
	Age        *int    `form:"age" json:"age" validate:"omitempty,gt=0,lt=150"`
	Phone      *string `form:"phone" json:"phone" validate:"omitempty,max=32"`
	Degree     *string `form:"degree" json:"degree" validate:"omitempty,max=128"`
	University *string `form:"university" json:"university" validate:"omitempty,max=255"`
}
