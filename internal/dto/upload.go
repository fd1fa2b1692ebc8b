package dto

import "time"

// CreateUploadRequest carries the metadata fields of a multipart submission.
// Owner and status are accepted on the wire but always overridden server-side.
type CreateUploadRequest struct {
	SubmissionType string `form:"submission_type" validate:"required,max=32"`
	University     string `form:"university" validate:"omitempty,max=255"`
	FieldOfStudy   string `form:"field_of_study" validate:"omitempty,max=255"`
	Title          string `form:"title" validate:"required,max=255"`
	Authors        string `form:"authors" validate:"required,max=255"`
	Year           string `form:"year" validate:"required"`
	Description    string `form:"description" validate:"required"`
	Status         string `form:"status" validate:"-"`
	User           string `form:"user" validate:"-"`
}

// UploadResponse is the full representation returned to owners.
type UploadResponse struct {
	ID             string    `json:"id"`
	User           string    `json:"user"`
	SubmissionType string    `json:"submission_type"`
	University     *string   `json:"university"`
	FieldOfStudy   string    `json:"field_of_study"`
	CoverImage     *string   `json:"cover_image"`
	Title          string    `json:"title"`
	Authors        string    `json:"authors"`
	Year           int       `json:"year"`
	Description    string    `json:"description"`
	File           *string   `json:"file"`
	Status         string    `json:"status"`
	Feedback       string    `json:"feedback"`
	UploadedAt     time.Time `json:"uploaded_at"`
	FileURL        *string   `json:"file_url"`
	CoverURL       *string   `json:"cover_url"`
}

// PublicUploadDetail is the reduced shape served by the detail endpoint,
// with absolute asset URLs.
type PublicUploadDetail struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Authors        string    `json:"authors"`
	Year           int       `json:"year"`
	Description    string    `json:"description"`
	SubmissionType string    `json:"submission_type"`
	University     *string   `json:"university"`
	FieldOfStudy   string    `json:"field_of_study"`
	UploadedAt     time.Time `json:"uploaded_at"`
	CoverImage     *string   `json:"cover_image"`
	FileURL        *string   `json:"file_url"`
}

// PublicListQuery binds the public listing filter.
type PublicListQuery struct {
	Field string `form:"field"`
}

// AdminUploadItem is one row of the review queue.
type AdminUploadItem struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	AuthorName     string    `json:"author_name"`
	SubmissionType string    `json:"submission_type"`
	Status         string    `json:"status"`
	StatusDisplay  string    `json:"status_display"`
	Feedback       string    `json:"feedback"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

// ReviewQueueQuery binds review queue filters.
type ReviewQueueQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=pending approved rejected draft"`
	Search string `form:"search"`
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// ReviewUploadRequest updates reviewer-owned fields. Omitted fields keep
// their stored value.
type ReviewUploadRequest struct {
	Status   *string `json:"status" validate:"omitempty,oneof=pending approved rejected"`
	Feedback *string `json:"feedback" validate:"omitempty,max=5000"`
}
