package notification

import (
	"fmt"
	"net/http"
	"sort"
)

// SlackNotifier implements the Notifier interface for Slack
type SlackNotifier struct {
	config SlackConfig
}

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config: config,
	}
}

// SlackWebhookPayload represents the payload structure for Slack webhooks
type SlackWebhookPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username,omitempty"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	IconURL     string            `json:"icon_url,omitempty"`
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// SlackAttachment represents an attachment in Slack message
type SlackAttachment struct {
	Color     string       `json:"color,omitempty"`
	Title     string       `json:"title,omitempty"`
	Text      string       `json:"text,omitempty"`
	Fields    []SlackField `json:"fields,omitempty"`
	Footer    string       `json:"footer,omitempty"`
	Timestamp int64        `json:"ts,omitempty"`
}

// SlackField represents a field in Slack attachment
type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Send sends a notification message to Slack
func (s *SlackNotifier) Send(message *Message) error {
	status, err := postJSON(s.config.WebhookURL, s.createPayload(message))
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", status)
	}

	return nil
}

// ValidateConfig validates the Slack configuration
func (s *SlackNotifier) ValidateConfig(config map[string]interface{}) error {
	webhookURL, ok := config["webhook_url"].(string)
	if !ok || webhookURL == "" {
		return fmt.Errorf("webhook_url is required for Slack")
	}

	return nil
}

// GetChannelType returns the notification channel type
func (s *SlackNotifier) GetChannelType() NotificationChannel {
	return ChannelSlack
}

func (s *SlackNotifier) createPayload(message *Message) *SlackWebhookPayload {
	attachment := SlackAttachment{
		Color:     s.getColorForType(message.Type),
		Title:     message.Title,
		Text:      message.Text,
		Footer:    "drivesweep",
		Timestamp: message.Timestamp.Unix(),
	}

	for _, key := range sortedKeys(message.Fields) {
		attachment.Fields = append(attachment.Fields, SlackField{
			Title: key,
			Value: fmt.Sprintf("%v", message.Fields[key]),
			Short: true,
		})
	}

	if message.ConfigName != "" {
		attachment.Fields = append(attachment.Fields, SlackField{
			Title: "Configuration",
			Value: message.ConfigName,
			Short: true,
		})
	}

	return &SlackWebhookPayload{
		Channel:     s.config.Channel,
		Username:    s.config.Username,
		IconEmoji:   s.config.IconEmoji,
		IconURL:     s.config.IconURL,
		Attachments: []SlackAttachment{attachment},
	}
}

func (s *SlackNotifier) getColorForType(msgType MessageType) string {
	switch msgType {
	case MessageTypeSuccess:
		return "good"
	case MessageTypeError:
		return "danger"
	case MessageTypeWarning:
		return "warning"
	case MessageTypeInfo:
		return "#36a64f"
	default:
		return "#808080"
	}
}

// sortedKeys returns the field names in a stable order
func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
