package config

import (
	"os"
	"time"
)

// AppConfig is the daemon's top-level configuration, read once at
// startup from the process environment.
type AppConfig struct {
	HTTPAddr             string
	DatabaseDSN          string
	PublicBaseURL        string
	CLIBinary            string
	CredentialsPath      string
	WebhookConfigPath    string
	GithubToken          string
	SlackToken           string
	JiraBaseURL          string
	JiraEmail            string
	JiraAPIToken         string
	SentryBaseURL        string
	SentryToken          string
	SessionIdleThreshold time.Duration
}

// Load reads AppConfig from the environment, applying the same
// defaults-with-override shape as ModelConfig.ModelFor.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr:             getEnv("RELAYD_HTTP_ADDR", ":8080"),
		DatabaseDSN:          os.Getenv("RELAYD_DATABASE_DSN"),
		PublicBaseURL:        os.Getenv("RELAYD_PUBLIC_BASE_URL"),
		CLIBinary:            getEnv("RELAYD_CLI_BINARY", "claude"),
		CredentialsPath:      getEnv("RELAYD_CREDENTIALS_PATH", "./data/credentials.json"),
		WebhookConfigPath:    os.Getenv("RELAYD_WEBHOOK_CONFIG_PATH"),
		GithubToken:          os.Getenv("RELAYD_GITHUB_TOKEN"),
		SlackToken:           os.Getenv("RELAYD_SLACK_TOKEN"),
		JiraBaseURL:          os.Getenv("RELAYD_JIRA_BASE_URL"),
		JiraEmail:            os.Getenv("RELAYD_JIRA_EMAIL"),
		JiraAPIToken:         os.Getenv("RELAYD_JIRA_API_TOKEN"),
		SentryBaseURL:        os.Getenv("RELAYD_SENTRY_BASE_URL"),
		SentryToken:          os.Getenv("RELAYD_SENTRY_TOKEN"),
		SessionIdleThreshold: getDuration("RELAYD_SESSION_IDLE_THRESHOLD", 24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
