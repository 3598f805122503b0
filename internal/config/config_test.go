package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9999")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("TICKETS_PER_PAGE", "7")
	t.Setenv("UPLOAD_ALLOWED_EXTENSIONS", ".PNG, .jpg ,,.gif")
	t.Setenv("UPLOAD_MAX_FILE_SIZE_MB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.App.Addr())
	assert.Equal(t, 5*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 7, cfg.Tickets.PerPage)
	assert.Equal(t, []string{".png", ".jpg", ".gif"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, int64(2<<20), cfg.Upload.MaxFileSizeBytes)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestTemplateDefaultsCarryPlaceholders(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.Notification.Templates.NewTicketAdminBody, "{ticket_id}")
	assert.Contains(t, cfg.Notification.Templates.NewTicketUserBody, "{ticket_content}")
	assert.Contains(t, cfg.Notification.Templates.ReplyUserBody, "{tickets_url}")
}
