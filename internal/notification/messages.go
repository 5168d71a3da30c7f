package notification

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// messageStyle captures the markup differences between channels
type messageStyle struct {
	successPrefix string
	errorPrefix   string
	bold          func(string) string
}

var (
	plainStyle = messageStyle{
		bold: func(s string) string { return s },
	}
	slackStyle = messageStyle{
		successPrefix: ":white_check_mark: ",
		errorPrefix:   ":x: ",
		bold:          func(s string) string { return "*" + s + "*" },
	}
	discordStyle = messageStyle{
		successPrefix: "✅ ",
		errorPrefix:   "❌ ",
		bold:          func(s string) string { return "**" + s + "**" },
	}
)

func styleFor(channel NotificationChannel) messageStyle {
	switch channel {
	case ChannelSlack:
		return slackStyle
	case ChannelDiscord:
		return discordStyle
	default:
		return plainStyle
	}
}

// CreateSweepSuccessMessage builds the summary sent after a completed sweep
func CreateSweepSuccessMessage(channel NotificationChannel, data *SweepNotificationData) *Message {
	style := styleFor(channel)
	name := sweepName(data)

	fields := sweepFields(data)
	fields["Files"] = humanize.Comma(int64(data.FileCount))
	fields["Public Links"] = humanize.Comma(int64(data.SharedCount))
	fields["Revoked Grants"] = humanize.Comma(int64(data.RevokedCount))
	fields["Total Size"] = humanize.Bytes(data.TotalBytes)

	msgType := MessageTypeSuccess
	if data.RevokedCount > 0 {
		msgType = MessageTypeWarning
	}

	return &Message{
		Type:       msgType,
		Title:      fmt.Sprintf("%sSweep Completed: %s", style.successPrefix, name),
		Text:       fmt.Sprintf("Drive sweep completed for %s", style.bold(name)),
		Fields:     fields,
		Timestamp:  data.CompletedAt,
		ConfigName: data.ConfigName,
		RunID:      data.RunID,
	}
}

// CreateSweepErrorMessage builds the report sent after a failed sweep
func CreateSweepErrorMessage(channel NotificationChannel, data *SweepNotificationData) *Message {
	style := styleFor(channel)
	name := sweepName(data)

	fields := sweepFields(data)
	fields["Error"] = data.ErrorMessage

	completedAt := data.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	return &Message{
		Type:       MessageTypeError,
		Title:      fmt.Sprintf("%sSweep Failed: %s", style.errorPrefix, name),
		Text:       fmt.Sprintf("Drive sweep failed for %s", style.bold(name)),
		Fields:     fields,
		Timestamp:  completedAt,
		ConfigName: data.ConfigName,
		RunID:      data.RunID,
	}
}

func sweepName(data *SweepNotificationData) string {
	if data.ConfigName != "" {
		return data.ConfigName
	}
	return data.FolderID
}

func sweepFields(data *SweepNotificationData) map[string]interface{} {
	var duration time.Duration
	if !data.CompletedAt.IsZero() {
		duration = data.CompletedAt.Sub(data.StartedAt)
	} else {
		duration = time.Since(data.StartedAt)
	}

	return map[string]interface{}{
		"Folder":    data.FolderID,
		"Recursive": data.Recursive,
		"Duration":  duration.Round(time.Second).String(),
	}
}
