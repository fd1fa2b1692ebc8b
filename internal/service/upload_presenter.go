package service

import (
	"net/url"
	"strings"

	"github.com/noah-isme/research-portal-api/internal/dto"
	"github.com/noah-isme/research-portal-api/internal/models"
)

// UploadPresenter shapes stored records into their wire representations.
// Empty asset references always render as null.
type UploadPresenter struct {
	mediaURL string
}

// NewUploadPresenter builds a presenter that prefixes asset keys with mediaURL.
func NewUploadPresenter(mediaURL string) *UploadPresenter {
	if strings.TrimSpace(mediaURL) == "" {
		mediaURL = "/media/"
	}
	if !strings.HasSuffix(mediaURL, "/") {
		mediaURL += "/"
	}
	return &UploadPresenter{mediaURL: mediaURL}
}

// AssetURL returns the media URL for key, relative unless MEDIA_URL is absolute.
func (p *UploadPresenter) AssetURL(key string) *string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return nil
	}
	u := p.mediaURL + key
	return &u
}

// AbsoluteAssetURL resolves the media URL for key against baseURL
// (scheme://host of the current request).
func (p *UploadPresenter) AbsoluteAssetURL(key, baseURL string) *string {
	rel := p.AssetURL(key)
	if rel == nil {
		return nil
	}
	if isAbsoluteURL(*rel) {
		return rel
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return rel
	}
	ref, err := url.Parse(*rel)
	if err != nil {
		return rel
	}
	abs := base.ResolveReference(ref).String()
	return &abs
}

// Full renders the owner-facing representation.
func (p *UploadPresenter) Full(u models.Upload) dto.UploadResponse {
	return dto.UploadResponse{
		ID:             u.ID,
		User:           u.UserID,
		SubmissionType: u.SubmissionType,
		University:     u.University,
		FieldOfStudy:   u.FieldOfStudy,
		CoverImage:     p.AssetURL(u.CoverImage),
		Title:          u.Title,
		Authors:        u.Authors,
		Year:           u.Year,
		Description:    u.Description,
		File:           p.AssetURL(u.File),
		Status:         string(u.Status),
		Feedback:       u.Feedback,
		UploadedAt:     u.UploadedAt,
		FileURL:        p.AssetURL(u.File),
		CoverURL:       p.AssetURL(u.CoverImage),
	}
}

// FullList renders a slice, never returning nil.
func (p *UploadPresenter) FullList(uploads []models.Upload) []dto.UploadResponse {
	out := make([]dto.UploadResponse, 0, len(uploads))
	for _, u := range uploads {
		out = append(out, p.Full(u))
	}
	return out
}

// PublicDetail renders the reduced detail shape with absolute asset URLs.
func (p *UploadPresenter) PublicDetail(u models.Upload, baseURL string) dto.PublicUploadDetail {
	return dto.PublicUploadDetail{
		ID:             u.ID,
		Title:          u.Title,
		Authors:        u.Authors,
		Year:           u.Year,
		Description:    u.Description,
		SubmissionType: u.SubmissionType,
		University:     u.University,
		FieldOfStudy:   u.FieldOfStudy,
		UploadedAt:     u.UploadedAt,
		CoverImage:     p.AbsoluteAssetURL(u.CoverImage, baseURL),
		FileURL:        p.AbsoluteAssetURL(u.File, baseURL),
	}
}

// AdminItem renders one review queue row.
func (p *UploadPresenter) AdminItem(item models.ReviewItem) dto.AdminUploadItem {
	return dto.AdminUploadItem{
		ID:             item.ID,
		Title:          item.Title,
		AuthorName:     item.AuthorName,
		SubmissionType: item.SubmissionType,
		Status:         string(item.Status),
		StatusDisplay:  item.Status.Label(),
		Feedback:       item.Feedback,
		UploadedAt:     item.UploadedAt,
	}
}

// Profile renders a profile together with its owner summary.
func (p *UploadPresenter) Profile(profile models.Profile, user models.User) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID: profile.ID,
		User: dto.ProfileUser{
			ID:           user.ID,
			Username:     user.Username,
			Email:        user.Email,
			UserCategory: user.UserCategory,
			IsStaff:      user.IsStaff(),
		},
		NationalID:      profile.NationalID,
		Age:             profile.Age,
		Phone:           profile.Phone,
		Degree:          profile.Degree,
		University:      profile.University,
		ProfileImage:    p.AssetURL(profile.ProfileImage),
		ProfileComplete: profile.ProfileComplete,
	}
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
