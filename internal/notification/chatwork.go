package notification

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const chatworkAPIBase = "https://api.chatwork.com/v2"

// ChatworkNotifier implements the Notifier interface for Chatwork
type ChatworkNotifier struct {
	config ChatworkConfig
}

// NewChatworkNotifier creates a new Chatwork notifier
func NewChatworkNotifier(config ChatworkConfig) *ChatworkNotifier {
	return &ChatworkNotifier{
		config: config,
	}
}

// Send posts a notification message to the configured Chatwork room
func (c *ChatworkNotifier) Send(message *Message) error {
	base := c.config.BaseURL
	if base == "" {
		base = chatworkAPIBase
	}
	apiURL := fmt.Sprintf("%s/rooms/%s/messages", strings.TrimSuffix(base, "/"), url.PathEscape(c.config.RoomID))

	data := url.Values{}
	data.Set("body", c.formatMessage(message))
	data.Set("self_unread", "0")

	req, err := http.NewRequest(http.MethodPost, apiURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-ChatWorkToken", c.config.APIToken)
	req.Header.Set("User-Agent", userAgent)

	status, err := do(req)
	if err != nil {
		return fmt.Errorf("chatwork: %w", err)
	}

	if status != http.StatusOK {
		return fmt.Errorf("chatwork API returned status %d", status)
	}

	return nil
}

// ValidateConfig validates the Chatwork configuration
func (c *ChatworkNotifier) ValidateConfig(config map[string]interface{}) error {
	apiToken, ok := config["api_token"].(string)
	if !ok || apiToken == "" {
		return fmt.Errorf("api_token is required for Chatwork")
	}

	roomID, ok := config["room_id"].(string)
	if !ok || roomID == "" {
		return fmt.Errorf("room_id is required for Chatwork")
	}

	return nil
}

// GetChannelType returns the notification channel type
func (c *ChatworkNotifier) GetChannelType() NotificationChannel {
	return ChannelChatwork
}

// formatMessage renders a message using Chatwork's [info] markup
func (c *ChatworkNotifier) formatMessage(message *Message) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "[info][title]%s %s[/title]\n", c.getEmojiForType(message.Type), message.Title)
	fmt.Fprintf(&builder, "⏰ Time: %s\n", message.Timestamp.Format("2006-01-02 15:04:05"))
	builder.WriteString("[hr]\n")

	if message.Text != "" {
		fmt.Fprintf(&builder, "📝 %s\n", message.Text)
	}

	if len(message.Fields) > 0 {
		builder.WriteString("\n📌 Details:\n")
		for _, key := range sortedKeys(message.Fields) {
			fmt.Fprintf(&builder, "• %s: %v\n", key, message.Fields[key])
		}
	}

	if message.ConfigName != "" || message.RunID != "" {
		builder.WriteString("[hr]\n")
	}
	if message.ConfigName != "" {
		fmt.Fprintf(&builder, "⚙️ Config: %s\n", message.ConfigName)
	}
	if message.RunID != "" {
		fmt.Fprintf(&builder, "🔖 Run: %s\n", message.RunID)
	}

	builder.WriteString("[/info]")
	return builder.String()
}

func (c *ChatworkNotifier) getEmojiForType(msgType MessageType) string {
	switch msgType {
	case MessageTypeSuccess:
		return "✅"
	case MessageTypeError:
		return "❌"
	case MessageTypeWarning:
		return "⚠️"
	case MessageTypeInfo:
		return "ℹ️"
	default:
		return "📝"
	}
}
