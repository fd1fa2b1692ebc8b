package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/research-portal-api/internal/models"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
)

type memUploadStore struct {
	uploads     []models.Upload
	publicCalls int
	lastFilter  models.PublicUploadFilter
	err         error
}

func (m *memUploadStore) GetByID(ctx context.Context, id string) (*models.Upload, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.uploads {
		if m.uploads[i].ID == id {
			u := m.uploads[i]
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUploadStore) ListByOwner(ctx context.Context, userID string) ([]models.Upload, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []models.Upload{}
	for _, u := range m.uploads {
		if u.UserID == userID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUploadStore) ListPublic(ctx context.Context, filter models.PublicUploadFilter) ([]models.Upload, error) {
	m.publicCalls++
	m.lastFilter = filter
	field := strings.TrimSpace(filter.Field)
	out := []models.Upload{}
	for _, u := range m.uploads {
		if filter.ApprovedOnly && u.Status != models.UploadStatusApproved {
			continue
		}
		if field != "" && !strings.EqualFold(u.FieldOfStudy, field) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func seededUploads() (*memUploadStore, map[string]string) {
	ids := map[string]string{
		"mineApproved": uuid.NewString(),
		"minePending":  uuid.NewString(),
		"theirs":       uuid.NewString(),
	}
	now := time.Now().UTC()
	return &memUploadStore{uploads: []models.Upload{
		{ID: ids["mineApproved"], UserID: "alice", Title: "A", FieldOfStudy: "Biology", Status: models.UploadStatusApproved, File: "files/a.pdf", UploadedAt: now},
		{ID: ids["minePending"], UserID: "alice", Title: "B", FieldOfStudy: "Biology", Status: models.UploadStatusPending, File: "files/b.pdf", UploadedAt: now.Add(-time.Hour)},
		{ID: ids["theirs"], UserID: "bob", Title: "C", FieldOfStudy: "Chemistry", Status: models.UploadStatusApproved, File: "files/c.pdf", UploadedAt: now.Add(-2 * time.Hour)},
	}}, ids
}

func TestListMineOnlyReturnsOwnUploads(t *testing.T) {
	store, _ := seededUploads()
	svc := NewUploadQueryService(store, nil, nil, true, nil)

	out, err := svc.ListMine(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, u := range out {
		assert.Equal(t, "alice", u.User)
	}

	empty, err := svc.ListMine(context.Background(), "carol")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestListPublicApprovedOnly(t *testing.T) {
	store, _ := seededUploads()
	svc := NewUploadQueryService(store, nil, nil, true, nil)

	out, hit, err := svc.ListPublic(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, out, 2)
	assert.Equal(t, models.PublicUploadFilter{ApprovedOnly: true}, store.lastFilter)
}

func TestListPublicMatchesFieldIgnoringCase(t *testing.T) {
	store, _ := seededUploads()
	svc := NewUploadQueryService(store, nil, nil, false, nil)

	out, _, err := svc.ListPublic(context.Background(), "biology")
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, u := range out {
		assert.Equal(t, "Biology", u.FieldOfStudy)
	}
	assert.Equal(t, "biology", store.lastFilter.Field)

	out, _, err = svc.ListPublic(context.Background(), "CHEMISTRY")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "C", out[0].Title)

	out, _, err = svc.ListPublic(context.Background(), "physics")
	require.NoError(t, err)
	assert.Empty(t, out)

	approved := NewUploadQueryService(store, nil, nil, true, nil)
	out, _, err = approved.ListPublic(context.Background(), "Biology")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].Title)
}

func TestListPublicUnrestricted(t *testing.T) {
	store, _ := seededUploads()
	svc := NewUploadQueryService(store, nil, nil, false, nil)

	out, _, err := svc.ListPublic(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.False(t, store.lastFilter.ApprovedOnly)
}

func TestListPublicUsesCache(t *testing.T) {
	store, _ := seededUploads()
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewUploadQueryService(store, cache, nil, true, nil)

	_, hit, err := svc.ListPublic(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, hit)

	out, hit, err := svc.ListPublic(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, out, 2)
	assert.Equal(t, 1, store.publicCalls)
}

func TestDetailVisibility(t *testing.T) {
	store, ids := seededUploads()
	svc := NewUploadQueryService(store, nil, NewUploadPresenter("/media/"), true, nil)
	ctx := context.Background()

	detail, err := svc.Detail(ctx, ids["mineApproved"], "alice", "http://localhost:8000")
	require.NoError(t, err)
	require.NotNil(t, detail.FileURL)
	assert.Equal(t, "http://localhost:8000/media/files/a.pdf", *detail.FileURL)
	assert.Nil(t, detail.CoverImage)

	cases := map[string]struct {
		id, requester string
	}{
		"pending own":      {ids["minePending"], "alice"},
		"approved foreign": {ids["theirs"], "alice"},
		"anonymous":        {ids["mineApproved"], ""},
		"missing":          {uuid.NewString(), "alice"},
		"malformed":        {"5", "alice"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Detail(ctx, tc.id, tc.requester, "http://localhost:8000")
			appErr := appErrors.FromError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
			assert.Equal(t, "upload not found", appErr.Message)
		})
	}
}

func TestDetailStoreFailure(t *testing.T) {
	store := &memUploadStore{err: errBoom}
	svc := NewUploadQueryService(store, nil, nil, true, nil)

	_, err := svc.Detail(context.Background(), uuid.NewString(), "alice", "")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
