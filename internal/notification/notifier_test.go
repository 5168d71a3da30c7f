package notification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlackNotifier_ValidateConfig(t *testing.T) {
	notifier := &SlackNotifier{}

	tests := []struct {
		name        string
		config      map[string]interface{}
		expectError bool
	}{
		{name: "valid config", config: map[string]interface{}{"webhook_url": "https://hooks.slack.com/test"}},
		{name: "missing webhook_url", config: map[string]interface{}{"channel": "#general"}, expectError: true},
		{name: "empty webhook_url", config: map[string]interface{}{"webhook_url": ""}, expectError: true},
		{name: "invalid webhook_url type", config: map[string]interface{}{"webhook_url": 123}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := notifier.ValidateConfig(tt.config)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSlackNotifier_Send(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse int
		expectError    bool
	}{
		{name: "successful send", serverResponse: http.StatusOK},
		{name: "server error", serverResponse: http.StatusInternalServerError, expectError: true},
		{name: "no content is not ok for slack", serverResponse: http.StatusNoContent, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message := &Message{
				Type:       MessageTypeSuccess,
				Title:      "Sweep Completed",
				Text:       "done",
				Timestamp:  time.Now(),
				ConfigName: "team-share",
				Fields:     map[string]interface{}{"b": 2, "a": "1"},
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

				var payload SlackWebhookPayload
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				if assert.Len(t, payload.Attachments, 1) {
					attachment := payload.Attachments[0]
					assert.Equal(t, message.Title, attachment.Title)
					assert.Equal(t, "#ops", payload.Channel)
				}

				w.WriteHeader(tt.serverResponse)
			}))
			defer server.Close()

			notifier := NewSlackNotifier(SlackConfig{WebhookURL: server.URL, Channel: "#ops"})
			err := notifier.Send(message)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSlackNotifier_Send_NetworkError(t *testing.T) {
	notifier := NewSlackNotifier(SlackConfig{WebhookURL: "http://127.0.0.1:1/invalid"})

	err := notifier.Send(&Message{Type: MessageTypeInfo, Title: "Test", Timestamp: time.Now()})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request")
}

func TestSlackNotifier_createPayload(t *testing.T) {
	notifier := NewSlackNotifier(SlackConfig{
		WebhookURL: "https://hooks.slack.com/test",
		Username:   "sweeper",
		IconEmoji:  ":broom:",
	})

	timestamp := time.Now()
	payload := notifier.createPayload(&Message{
		Type:       MessageTypeSuccess,
		Title:      "Title",
		Text:       "Text",
		Timestamp:  timestamp,
		ConfigName: "team-share",
		Fields:     map[string]interface{}{"Zeta": 1, "Alpha": "x"},
	})

	assert.Equal(t, "sweeper", payload.Username)
	assert.Equal(t, ":broom:", payload.IconEmoji)
	assert.Empty(t, payload.Channel)
	require.Len(t, payload.Attachments, 1)

	attachment := payload.Attachments[0]
	assert.Equal(t, "good", attachment.Color)
	assert.Equal(t, "drivesweep", attachment.Footer)
	assert.Equal(t, timestamp.Unix(), attachment.Timestamp)
	require.Len(t, attachment.Fields, 3)
	assert.Equal(t, "Alpha", attachment.Fields[0].Title)
	assert.Equal(t, "Zeta", attachment.Fields[1].Title)
	assert.Equal(t, SlackField{Title: "Configuration", Value: "team-share", Short: true}, attachment.Fields[2])
}

func TestSlackNotifier_getColorForType(t *testing.T) {
	notifier := &SlackNotifier{}

	tests := []struct {
		msgType       MessageType
		expectedColor string
	}{
		{MessageTypeSuccess, "good"},
		{MessageTypeError, "danger"},
		{MessageTypeWarning, "warning"},
		{MessageTypeInfo, "#36a64f"},
		{MessageType("unknown"), "#808080"},
	}

	for _, tt := range tests {
		t.Run(string(tt.msgType), func(t *testing.T) {
			assert.Equal(t, tt.expectedColor, notifier.getColorForType(tt.msgType))
		})
	}
}

func TestDiscordNotifier_Send(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse int
		expectError    bool
	}{
		{name: "ok", serverResponse: http.StatusOK},
		{name: "no content", serverResponse: http.StatusNoContent},
		{name: "rate limited", serverResponse: http.StatusTooManyRequests, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var payload DiscordWebhookPayload
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				if assert.Len(t, payload.Embeds, 1) {
					assert.Equal(t, 0xFF0000, payload.Embeds[0].Color)
					assert.Equal(t, "drivesweep", payload.Embeds[0].Footer.Text)
				}
				assert.Equal(t, "sweeper", payload.Username)
				w.WriteHeader(tt.serverResponse)
			}))
			defer server.Close()

			notifier := NewDiscordNotifier(DiscordConfig{WebhookURL: server.URL, Username: "sweeper"})
			err := notifier.Send(&Message{Type: MessageTypeError, Title: "Sweep Failed", Timestamp: time.Now()})
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDiscordNotifier_ValidateConfig(t *testing.T) {
	notifier := &DiscordNotifier{}
	assert.NoError(t, notifier.ValidateConfig(map[string]interface{}{"webhook_url": "https://discord.com/api/webhooks/test"}))
	assert.Error(t, notifier.ValidateConfig(map[string]interface{}{"username": "bot"}))
	assert.Equal(t, ChannelDiscord, notifier.GetChannelType())
}

func TestDiscordNotifier_getColorForType(t *testing.T) {
	notifier := &DiscordNotifier{}
	assert.Equal(t, 0x00FF00, notifier.getColorForType(MessageTypeSuccess))
	assert.Equal(t, 0xFF0000, notifier.getColorForType(MessageTypeError))
	assert.Equal(t, 0xFFFF00, notifier.getColorForType(MessageTypeWarning))
	assert.Equal(t, 0x0099FF, notifier.getColorForType(MessageTypeInfo))
}

func TestChatworkNotifier_Send(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rooms/42/messages", r.URL.Path)
		assert.Equal(t, "token", r.Header.Get("X-ChatWorkToken"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "0", r.PostForm.Get("self_unread"))
		assert.True(t, strings.HasPrefix(r.PostForm.Get("body"), "[info][title]"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewChatworkNotifier(ChatworkConfig{APIToken: "token", RoomID: "42", BaseURL: server.URL + "/"})
	err := notifier.Send(&Message{Type: MessageTypeInfo, Title: "Test", Text: "Body", Timestamp: time.Now()})
	assert.NoError(t, err)
}

func TestChatworkNotifier_Send_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	notifier := NewChatworkNotifier(ChatworkConfig{APIToken: "bad", RoomID: "42", BaseURL: server.URL})
	err := notifier.Send(&Message{Type: MessageTypeInfo, Title: "Test", Timestamp: time.Now()})
	assert.EqualError(t, err, "chatwork API returned status 401")
}

func TestChatworkNotifier_ValidateConfig(t *testing.T) {
	c := &ChatworkNotifier{}
	assert.NoError(t, c.ValidateConfig(map[string]any{"api_token": "token", "room_id": "room"}))
	assert.Error(t, c.ValidateConfig(map[string]any{"api_token": "", "room_id": "room"}))
	assert.Error(t, c.ValidateConfig(map[string]any{"api_token": "token", "room_id": ""}))
	assert.Equal(t, ChannelChatwork, c.GetChannelType())
}

func TestChatworkNotifier_formatMessage(t *testing.T) {
	n := NewChatworkNotifier(ChatworkConfig{})
	formatted := n.formatMessage(&Message{
		Type:       MessageTypeSuccess,
		Title:      "Sweep Completed: team-share",
		Text:       "Drive sweep completed",
		Fields:     map[string]any{"Files": "12"},
		Timestamp:  time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		ConfigName: "team-share",
		RunID:      "run-1",
	})

	assert.True(t, strings.HasPrefix(formatted, "[info][title]✅ Sweep Completed: team-share[/title]"))
	assert.Contains(t, formatted, "2024-05-01 10:30:00")
	assert.Contains(t, formatted, "• Files: 12")
	assert.Contains(t, formatted, "Config: team-share")
	assert.Contains(t, formatted, "Run: run-1")
	assert.True(t, strings.HasSuffix(formatted, "[/info]"))
}

func TestChatworkNotifier_getEmojiForType(t *testing.T) {
	c := &ChatworkNotifier{}
	assert.Equal(t, "✅", c.getEmojiForType(MessageTypeSuccess))
	assert.Equal(t, "❌", c.getEmojiForType(MessageTypeError))
	assert.Equal(t, "⚠️", c.getEmojiForType(MessageTypeWarning))
	assert.Equal(t, "ℹ️", c.getEmojiForType(MessageTypeInfo))
	assert.Equal(t, "📝", c.getEmojiForType("other"))
}
