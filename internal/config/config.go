package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort    string
	AppEnv     string
	AppBaseURL string // public site URL used in email links

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables

	// S3 bucket holding downloadable resources (lead-magnet PDF, chapter
	// attachments) and the key of the lead-magnet object.
	S3BucketName  string
	LeadMagnetKey string

	RedisURL string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	MailerLiteAPIToken   string
	MailerLitePDFGroupID string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each document collection.
type DynamoTables struct {
	AllowedUsers string
	OtpCodes     string
	UserProgress string
	Courses      string
	Chapters     string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:    getEnv("APP_PORT", "3000"),
		AppEnv:     getEnv("APP_ENV", "development"),
		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			AllowedUsers: getEnv("DYNAMO_TABLE_ALLOWED_USERS", "allowed_users"),
			OtpCodes:     getEnv("DYNAMO_TABLE_OTP_CODES", "otp_codes"),
			UserProgress: getEnv("DYNAMO_TABLE_USER_PROGRESS", "user_progress"),
			Courses:      getEnv("DYNAMO_TABLE_COURSES", "courses"),
			Chapters:     getEnv("DYNAMO_TABLE_CHAPTERS", "chapters"),
		},

		S3BucketName:  getEnv("S3_BUCKET_NAME", "course-resources"),
		LeadMagnetKey: getEnv("LEAD_MAGNET_KEY", "downloads/vocal-chain-guide.pdf"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24*7)) * time.Hour,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MailerLiteAPIToken:   getEnv("MAILER_LITE_API_TOKEN", ""),
		MailerLitePDFGroupID: getEnv("MAILER_LITE_PDF_GROUP_ID", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// HasWriteCredentials reports whether a write-capable content-store
// credential is configured. Progress writes are refused without one.
func (c *Config) HasWriteCredentials() bool {
	return c.AWSAccessKeyID != "" || c.AWSEndpointURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
