package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Webhook and admin authentication
	WebhookSecret  string `envconfig:"WEBHOOK_SECRET" required:"true"`
	AdminJWTSecret string `envconfig:"ADMIN_JWT_SECRET" required:"true"`

	// Chat gateway (delivers messages back to users)
	ChatAPIBaseURL string `envconfig:"CHAT_API_BASE_URL" required:"true"`
	ChatAPIToken   string `envconfig:"CHAT_API_TOKEN" required:"true"`

	// Generation providers. Keys left empty are fetched from Secret Manager
	// at startup.
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	ImageAPIBaseURL string `envconfig:"IMAGE_API_BASE_URL" required:"true"`
	ImageAPIKey     string `envconfig:"IMAGE_API_KEY"`
	VideoAPIBaseURL string `envconfig:"VIDEO_API_BASE_URL" required:"true"`
	VideoAPIKey     string `envconfig:"VIDEO_API_KEY"`

	// Google Cloud
	GCPProjectID    string `envconfig:"GCP_PROJECT_ID"`
	TaskEventsTopic string `envconfig:"TASK_EVENTS_TOPIC" default:"generation-task-events"`

	// Media storage
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// Plan limits per billing period
	FreeTextLimit     int `envconfig:"FREE_TEXT_LIMIT" default:"100"`
	FreeImageLimit    int `envconfig:"FREE_IMAGE_LIMIT" default:"3"`
	FreeVideoLimit    int `envconfig:"FREE_VIDEO_LIMIT" default:"1"`
	PremiumTextLimit  int `envconfig:"PREMIUM_TEXT_LIMIT" default:"500"`
	PremiumImageLimit int `envconfig:"PREMIUM_IMAGE_LIMIT" default:"50"`
	PremiumVideoLimit int `envconfig:"PREMIUM_VIDEO_LIMIT" default:"10"`

	// Polling budgets per category
	ImagePollIntervalSec int `envconfig:"IMAGE_POLL_INTERVAL_SEC" default:"10"`
	ImageMaxAttempts     int `envconfig:"IMAGE_MAX_ATTEMPTS" default:"60"`
	VideoPollIntervalSec int `envconfig:"VIDEO_POLL_INTERVAL_SEC" default:"5"`
	VideoMaxAttempts     int `envconfig:"VIDEO_MAX_ATTEMPTS" default:"180"`

	// Webhook update deduplication window
	DedupCapacity int `envconfig:"DEDUP_CAPACITY" default:"1000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
