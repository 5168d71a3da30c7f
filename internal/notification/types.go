package notification

import (
	"time"

	"github.com/vfa-khuongdv/drivesweep/internal/database"
)

// NotificationChannel represents the type of notification channel
type NotificationChannel string

const (
	ChannelChatwork NotificationChannel = "chatwork"
	ChannelDiscord  NotificationChannel = "discord"
	ChannelSlack    NotificationChannel = "slack"
)

// MessageType represents the type of notification message
type MessageType string

const (
	MessageTypeSuccess MessageType = "success"
	MessageTypeError   MessageType = "error"
	MessageTypeInfo    MessageType = "info"
	MessageTypeWarning MessageType = "warning"
)

// Message represents a notification message to be sent
type Message struct {
	Type       MessageType            `json:"type"`
	Title      string                 `json:"title"`
	Text       string                 `json:"text"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	ConfigName string                 `json:"config_name,omitempty"`
	RunID      string                 `json:"run_id,omitempty"`
}

// SweepNotificationData contains sweep-specific data for notifications
type SweepNotificationData struct {
	RunID        string    `json:"run_id"`
	ConfigName   string    `json:"config_name"`
	FolderID     string    `json:"folder_id"`
	Recursive    bool      `json:"recursive"`
	FileCount    int       `json:"file_count"`
	SharedCount  int       `json:"shared_count"`
	RevokedCount int       `json:"revoked_count"`
	TotalBytes   uint64    `json:"total_bytes"`
	ErrorMessage string    `json:"error_message,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Notifier interface defines the methods that all notification implementations must provide
type Notifier interface {
	// Send sends a notification message
	Send(message *Message) error

	// ValidateConfig validates the configuration for this notifier
	ValidateConfig(config map[string]interface{}) error

	// GetChannelType returns the notification channel type
	GetChannelType() NotificationChannel
}

// ConfigStore is the persistence the manager reads channel settings from
type ConfigStore interface {
	GetEnabledNotificationConfigs() ([]database.NotificationConfig, error)
	GetNotificationConfigByName(name string) (*database.NotificationConfig, error)
}

// ChatworkConfig holds Chatwork-specific configuration
type ChatworkConfig struct {
	APIToken string `json:"api_token"`
	RoomID   string `json:"room_id"`
	// BaseURL overrides the Chatwork API root, mainly for tests
	BaseURL string `json:"base_url,omitempty"`
}

// DiscordConfig holds Discord-specific configuration
type DiscordConfig struct {
	WebhookURL string `json:"webhook_url"`
	Username   string `json:"username,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

// SlackConfig holds Slack-specific configuration
type SlackConfig struct {
	WebhookURL string `json:"webhook_url"`
	Channel    string `json:"channel,omitempty"`
	Username   string `json:"username,omitempty"`
	IconEmoji  string `json:"icon_emoji,omitempty"`
	IconURL    string `json:"icon_url,omitempty"`
}

// NotificationResult represents the result of sending a notification
type NotificationResult struct {
	Channel   NotificationChannel `json:"channel"`
	Success   bool                `json:"success"`
	Error     string              `json:"error,omitempty"`
	SentAt    time.Time           `json:"sent_at"`
	MessageID string              `json:"message_id,omitempty"`
}

// NotificationConfig is the caller-facing description of a channel, stored
// as a database.NotificationConfig
type NotificationConfig struct {
	Name            string                 `json:"name" toml:"name"`
	Channel         string                 `json:"channel" toml:"channel"`
	Config          map[string]interface{} `json:"config" toml:"config"`
	NotifyOnSuccess bool                   `json:"notify_on_success" toml:"notify_on_success"`
	NotifyOnError   bool                   `json:"notify_on_error" toml:"notify_on_error"`
	Enabled         bool                   `json:"enabled" toml:"enabled"`
}

// ToModel converts the configuration to its database model
func (c NotificationConfig) ToModel() *database.NotificationConfig {
	return &database.NotificationConfig{
		Name:            c.Name,
		Channel:         c.Channel,
		Enabled:         c.Enabled,
		Config:          c.Config,
		NotifyOnSuccess: c.NotifyOnSuccess,
		NotifyOnError:   c.NotifyOnError,
	}
}
