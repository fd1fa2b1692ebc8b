package models

import "time"

// UploadStatus is the review state of a submission.
type UploadStatus string

const (
	UploadStatusPending  UploadStatus = "pending"
	UploadStatusApproved UploadStatus = "approved"
	UploadStatusRejected UploadStatus = "rejected"
	UploadStatusDraft    UploadStatus = "draft"
)

var uploadStatusLabels = map[UploadStatus]string{
	UploadStatusPending:  "Pending Review",
	UploadStatusApproved: "Approved",
	UploadStatusRejected: "Rejected",
	UploadStatusDraft:    "Draft",
}

// Label returns the human readable status name.
func (s UploadStatus) Label() string {
	if label, ok := uploadStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Reviewable reports whether a reviewer may assign the status.
func (s UploadStatus) Reviewable() bool {
	switch s {
	case UploadStatusPending, UploadStatusApproved, UploadStatusRejected:
		return true
	}
	return false
}

// Submission types with conditional requirements.
const (
	SubmissionTypeThesis   = "thesis"
	SubmissionTypeMasters  = "masters"
	SubmissionTypeBachelor = "bachelor"
	SubmissionTypeOther    = "other"
)

// SubmissionRequiredFields lists the extra fields each submission type demands.
// Types missing from the table have no conditional requirements.
var SubmissionRequiredFields = map[string][]string{
	SubmissionTypeThesis:   {"university"},
	SubmissionTypeMasters:  {"university"},
	SubmissionTypeBachelor: {"university"},
	SubmissionTypeOther:    {},
}

// Upload is a submitted research work.
type Upload struct {
	ID             string       `db:"id" json:"id"`
	UserID         string       `db:"user_id" json:"user"`
	SubmissionType string       `db:"submission_type" json:"submission_type"`
	University     *string      `db:"university" json:"university"`
	FieldOfStudy   string       `db:"field_of_study" json:"field_of_study"`
	CoverImage     string       `db:"cover_image" json:"cover_image"`
	Title          string       `db:"title" json:"title"`
	Authors        string       `db:"authors" json:"authors"`
	Year           int          `db:"year" json:"year"`
	Description    string       `db:"description" json:"description"`
	File           string       `db:"file" json:"file"`
	Status         UploadStatus `db:"status" json:"status"`
	Feedback       string       `db:"feedback" json:"feedback"`
	UploadedAt     time.Time    `db:"uploaded_at" json:"uploaded_at"`
}

// ReviewItem is an upload joined with its author's username.
type ReviewItem struct {
	Upload
	AuthorName string `db:"author_name" json:"author_name"`
}

// PublicUploadFilter narrows the unauthenticated listing.
type PublicUploadFilter struct {
	Field        string
	ApprovedOnly bool
}

// ReviewFilter narrows the admin review queue.
type ReviewFilter struct {
	Status *UploadStatus
	Search string
}
