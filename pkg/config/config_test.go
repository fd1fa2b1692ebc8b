package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.Equal(t, "/media/", cfg.Media.URL)
	assert.True(t, cfg.PublicList.ApprovedOnly)
	assert.Equal(t, 5*time.Minute, cfg.Cache.PublicListTTL)
	require.Len(t, cfg.Uploads.AllowedCoverTypes, 4)
	assert.Equal(t, "image/jpeg", cfg.Uploads.AllowedCoverTypes[0])
	assert.Equal(t, int64(25*1024*1024), cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, int64(31*1024*1024), cfg.Uploads.SubmissionBodyLimit())
	assert.Equal(t, int64(6*1024*1024), cfg.Uploads.ProfileBodyLimit())
	assert.Empty(t, cfg.TrustedProxies)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORAGE_DRIVER", " S3 ")
	v.Set("PUBLIC_LIST_APPROVED_ONLY", false)
	v.Set("PUBLIC_LIST_CACHE_TTL", "not-a-duration")
	v.Set("UPLOAD_MAX_FILE_SIZE", -1)
	v.Set("ALLOWED_ORIGINS", "http://localhost:3000, ,http://127.0.0.1:3000")
	v.Set("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")
	cfg := fromViper(v)

	assert.Equal(t, StorageDriverS3, cfg.Storage.Driver)
	assert.False(t, cfg.PublicList.ApprovedOnly)
	assert.Equal(t, 5*time.Minute, cfg.Cache.PublicListTTL)
	assert.Equal(t, int64(25*1024*1024), cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
}
