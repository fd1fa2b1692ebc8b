package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/research-portal-api/internal/models"
)

const uploadColumns = `u.id, u.user_id, u.submission_type, u.university, u.field_of_study, u.cover_image, u.title, u.authors, u.year, u.description, u.file, u.status, u.feedback, u.uploaded_at`

// UploadRepository persists research submissions.
type UploadRepository struct {
	db *sqlx.DB
}

// NewUploadRepository constructs the repository.
func NewUploadRepository(db *sqlx.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

// Create inserts a new upload row.
func (r *UploadRepository) Create(ctx context.Context, upload *models.Upload) error {
	if upload.ID == "" {
		upload.ID = uuid.NewString()
	}
	if upload.UploadedAt.IsZero() {
		upload.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO uploads (id, user_id, submission_type, university, field_of_study, cover_image, title, authors, year, description, file, status, feedback, uploaded_at)
		VALUES (:id, :user_id, :submission_type, :university, :field_of_study, :cover_image, :title, :authors, :year, :description, :file, :status, :feedback, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, upload); err != nil {
		return fmt.Errorf("create upload: %w", err)
	}
	return nil
}

// GetByID returns an upload by identifier.
func (r *UploadRepository) GetByID(ctx context.Context, id string) (*models.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads u WHERE u.id = $1 LIMIT 1`
	var upload models.Upload
	if err := r.db.GetContext(ctx, &upload, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return &upload, nil
}

// ListByOwner returns every upload owned by userID, newest first.
func (r *UploadRepository) ListByOwner(ctx context.Context, userID string) ([]models.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads u WHERE u.user_id = $1 ORDER BY u.uploaded_at DESC`
	uploads := make([]models.Upload, 0)
	if err := r.db.SelectContext(ctx, &uploads, query, userID); err != nil {
		return nil, fmt.Errorf("list uploads by owner: %w", err)
	}
	return uploads, nil
}

// ListPublic returns uploads for the public listing, newest first.
func (r *UploadRepository) ListPublic(ctx context.Context, filter models.PublicUploadFilter) ([]models.Upload, error) {
	var conditions []string
	var args []interface{}

	if field := strings.TrimSpace(filter.Field); field != "" {
		args = append(args, field)
		conditions = append(conditions, fmt.Sprintf("LOWER(u.field_of_study) = LOWER($%d)", len(args)))
	}
	if filter.ApprovedOnly {
		args = append(args, models.UploadStatusApproved)
		conditions = append(conditions, fmt.Sprintf("u.status = $%d", len(args)))
	}

	query := `SELECT ` + uploadColumns + ` FROM uploads u`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY u.uploaded_at DESC"

	uploads := make([]models.Upload, 0)
	if err := r.db.SelectContext(ctx, &uploads, query, args...); err != nil {
		return nil, fmt.Errorf("list public uploads: %w", err)
	}
	return uploads, nil
}

// ListForReview returns uploads joined with the author's username, newest first.
func (r *UploadRepository) ListForReview(ctx context.Context, filter models.ReviewFilter) ([]models.ReviewItem, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("u.status = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.title) LIKE $%d OR LOWER(a.username) LIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + uploadColumns + `, a.username AS author_name FROM uploads u JOIN users a ON a.id = u.user_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY u.uploaded_at DESC"

	items := make([]models.ReviewItem, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list uploads for review: %w", err)
	}
	return items, nil
}

// UpdateReview sets the reviewer-owned fields. It returns sql.ErrNoRows when
// no upload matches id.
func (r *UploadRepository) UpdateReview(ctx context.Context, id string, status models.UploadStatus, feedback string) error {
	const query = `UPDATE uploads SET status = $2, feedback = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, feedback)
	if err != nil {
		return fmt.Errorf("update upload review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update upload review rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
