package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Tickets      TicketsConfig
	Upload       UploadConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters. AdminEmail and
// AdminPasswordHash gate the admin login endpoint; end-user tokens are
// issued out-of-band and only parsed here.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	AdminEmail            string
	AdminPasswordHash     string
	BcryptCost            int
}

// TicketsConfig holds listing defaults.
type TicketsConfig struct {
	PerPage int
}

// UploadConfig constrains image attachments.
type UploadConfig struct {
	Enabled           bool
	Dir               string
	BaseURL           string
	MaxFileSizeBytes  int64
	AllowedExtensions []string
}

// NotificationConfig drives the email notification collaborator.
type NotificationConfig struct {
	Enabled           bool
	NotifyOnNewTicket bool
	NotifyOnReply     bool
	AdminEmail        string
	FromName          string
	FromAddress       string
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPassword      string
	SiteName          string
	SiteURL           string
	Templates         TemplateConfig
}

// TemplateConfig holds subject/body pairs for each notification kind.
// Bodies contain {placeholder} variables substituted at send time.
type TemplateConfig struct {
	NewTicketAdminSubject string
	NewTicketAdminBody    string
	NewTicketUserSubject  string
	NewTicketUserBody     string
	ReplyAdminSubject     string
	ReplyAdminBody        string
	ReplyUserSubject      string
	ReplyUserBody         string
}

const (
	defaultNewTicketAdminBody = "A new support ticket has been submitted.\n\nTicket ID: {ticket_id}\nSubject: {ticket_title}\nCustomer: {customer_name} ({customer_email})\nPriority: {priority}\nCategory: {category}\n\nMessage:\n{ticket_content}\n\nView ticket: {ticket_url}"
	defaultNewTicketUserBody  = "Thank you for contacting us! Your support ticket has been received.\n\nTicket ID: {ticket_id}\nSubject: {ticket_title}\nStatus: {status}\nPriority: {priority}\n\nWe will respond as soon as possible.\n\nYour message:\n{ticket_content}"
	defaultReplyAdminBody     = "A new reply has been added to ticket #{ticket_id}.\n\nTicket: {ticket_title}\nCustomer: {customer_name}\n\nReply:\n{reply_content}\n\nView ticket: {ticket_url}"
	defaultReplyUserBody      = "You have received a reply to your support ticket.\n\nTicket ID: {ticket_id}\nSubject: {ticket_title}\nStatus: {status}\n\nReply:\n{reply_content}\n\nView your tickets: {tickets_url}"
)

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxFileSizeMB := getEnvAsInt("UPLOAD_MAX_FILE_SIZE_MB", 5)

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			AdminEmail:            getEnv("AUTH_ADMIN_EMAIL", ""),
			AdminPasswordHash:     getEnv("AUTH_ADMIN_PASSWORD_HASH", ""),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Tickets: TicketsConfig{
			PerPage: getEnvAsInt("TICKETS_PER_PAGE", 20),
		},
		Upload: UploadConfig{
			Enabled:           getEnvAsBool("UPLOAD_ENABLED", true),
			Dir:               getEnv("UPLOAD_DIR", "uploads"),
			BaseURL:           getEnv("UPLOAD_BASE_URL", "/uploads"),
			MaxFileSizeBytes:  int64(maxFileSizeMB) << 20,
			AllowedExtensions: splitList(getEnv("UPLOAD_ALLOWED_EXTENSIONS", ".jpg,.jpeg,.png,.gif")),
		},
		Notification: NotificationConfig{
			Enabled:           getEnvAsBool("NOTIFY_ENABLED", false),
			NotifyOnNewTicket: getEnvAsBool("NOTIFY_ON_NEW_TICKET", true),
			NotifyOnReply:     getEnvAsBool("NOTIFY_ON_REPLY", true),
			AdminEmail:        getEnv("NOTIFY_ADMIN_EMAIL", ""),
			FromName:          getEnv("NOTIFY_FROM_NAME", "Helpdesk"),
			FromAddress:       getEnv("NOTIFY_FROM_ADDRESS", "noreply@example.com"),
			SMTPHost:          getEnv("SMTP_HOST", "localhost"),
			SMTPPort:          getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:          os.Getenv("SMTP_USER"),
			SMTPPassword:      os.Getenv("SMTP_PASSWORD"),
			SiteName:          getEnv("SITE_NAME", "Helpdesk"),
			SiteURL:           getEnv("SITE_URL", "http://localhost:8080"),
			Templates: TemplateConfig{
				NewTicketAdminSubject: getEnv("TPL_NEW_TICKET_ADMIN_SUBJECT", "New Support Ticket: {ticket_title}"),
				NewTicketAdminBody:    getEnv("TPL_NEW_TICKET_ADMIN_BODY", defaultNewTicketAdminBody),
				NewTicketUserSubject:  getEnv("TPL_NEW_TICKET_USER_SUBJECT", "Support Ticket Received: {ticket_title}"),
				NewTicketUserBody:     getEnv("TPL_NEW_TICKET_USER_BODY", defaultNewTicketUserBody),
				ReplyAdminSubject:     getEnv("TPL_REPLY_ADMIN_SUBJECT", "New Reply on Ticket: {ticket_title}"),
				ReplyAdminBody:        getEnv("TPL_REPLY_ADMIN_BODY", defaultReplyAdminBody),
				ReplyUserSubject:      getEnv("TPL_REPLY_USER_SUBJECT", "Reply to Your Ticket: {ticket_title}"),
				ReplyUserBody:         getEnv("TPL_REPLY_USER_BODY", defaultReplyUserBody),
			},
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(strings.ToLower(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
