package notification

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vfa-khuongdv/drivesweep/internal/database"
)

// Manager handles multiple notification channels and message formatting
type Manager struct {
	store     ConfigStore
	notifiers map[string]Notifier
	mutex     sync.RWMutex
}

// NewManager creates a new notification manager
func NewManager(store ConfigStore) *Manager {
	return &Manager{
		store:     store,
		notifiers: make(map[string]Notifier),
	}
}

// AddNotifier adds a notifier instance for a specific configuration
func (m *Manager) AddNotifier(configName string, notifier Notifier) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.notifiers[configName] = notifier
	log.Printf("Added %s notifier for config '%s'", notifier.GetChannelType(), configName)
}

// RemoveNotifier removes a notifier for a specific configuration
func (m *Manager) RemoveNotifier(configName string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.notifiers, configName)
	log.Printf("Removed notifier for config '%s'", configName)
}

// SendNotification sends a message to every registered notifier concurrently
func (m *Manager) SendNotification(message *Message) []NotificationResult {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var wg sync.WaitGroup
	resultChan := make(chan NotificationResult, len(m.notifiers))

	for configName, notifier := range m.notifiers {
		wg.Add(1)
		go func(name string, n Notifier) {
			defer wg.Done()
			resultChan <- send(name, n, message)
		}(configName, notifier)
	}

	wg.Wait()
	close(resultChan)

	var results []NotificationResult
	for result := range resultChan {
		results = append(results, result)
	}
	return results
}

// SendSweepSuccessNotification notifies every channel subscribed to successful sweeps
func (m *Manager) SendSweepSuccessNotification(data *SweepNotificationData) []NotificationResult {
	return m.dispatch(
		func(c *database.NotificationConfig) bool { return c.NotifyOnSuccess },
		func(channel NotificationChannel) *Message { return CreateSweepSuccessMessage(channel, data) },
	)
}

// SendSweepErrorNotification notifies every channel subscribed to failed sweeps
func (m *Manager) SendSweepErrorNotification(data *SweepNotificationData) []NotificationResult {
	return m.dispatch(
		func(c *database.NotificationConfig) bool { return c.NotifyOnError },
		func(channel NotificationChannel) *Message { return CreateSweepErrorMessage(channel, data) },
	)
}

func (m *Manager) dispatch(wants func(*database.NotificationConfig) bool, build func(NotificationChannel) *Message) []NotificationResult {
	configs, err := m.store.GetEnabledNotificationConfigs()
	if err != nil {
		log.Printf("Failed to get notification configs: %v", err)
		return nil
	}

	var results []NotificationResult
	for i := range configs {
		config := &configs[i]
		if !wants(config) {
			continue
		}

		notifier, err := createNotifierFromConfig(config)
		if err != nil {
			log.Printf("Failed to create notifier for config '%s': %v", config.Name, err)
			continue
		}

		results = append(results, send(config.Name, notifier, build(notifier.GetChannelType())))
	}

	return results
}

func send(name string, n Notifier, message *Message) NotificationResult {
	result := NotificationResult{
		Channel: n.GetChannelType(),
		SentAt:  time.Now(),
	}

	if err := n.Send(message); err != nil {
		result.Error = err.Error()
		log.Printf("Failed to send notification via %s (config: %s): %v", n.GetChannelType(), name, err)
		return result
	}

	result.Success = true
	log.Printf("Sent notification via %s (config: %s)", n.GetChannelType(), name)
	return result
}

// TestNotification sends a test notification to a specific channel
func (m *Manager) TestNotification(configName string) error {
	config, err := m.store.GetNotificationConfigByName(configName)
	if err != nil {
		return fmt.Errorf("failed to get notification config: %w", err)
	}

	notifier, err := createNotifierFromConfig(config)
	if err != nil {
		return fmt.Errorf("failed to create notifier: %w", err)
	}

	message := &Message{
		Type:      MessageTypeInfo,
		Title:     "Test Notification",
		Text:      fmt.Sprintf("This is a test notification from drivesweep via %s", config.Channel),
		Timestamp: time.Now(),
		Fields: map[string]interface{}{
			"Channel":       config.Channel,
			"Configuration": configName,
		},
	}

	return notifier.Send(message)
}

// createNotifierFromConfig builds and validates a notifier for a stored configuration
func createNotifierFromConfig(config *database.NotificationConfig) (Notifier, error) {
	var notifier Notifier

	switch NotificationChannel(config.Channel) {
	case ChannelChatwork:
		var chatworkConfig ChatworkConfig
		if err := decodeConfig(config.Config, &chatworkConfig); err != nil {
			return nil, fmt.Errorf("failed to parse Chatwork config: %w", err)
		}
		notifier = NewChatworkNotifier(chatworkConfig)

	case ChannelDiscord:
		var discordConfig DiscordConfig
		if err := decodeConfig(config.Config, &discordConfig); err != nil {
			return nil, fmt.Errorf("failed to parse Discord config: %w", err)
		}
		notifier = NewDiscordNotifier(discordConfig)

	case ChannelSlack:
		var slackConfig SlackConfig
		if err := decodeConfig(config.Config, &slackConfig); err != nil {
			return nil, fmt.Errorf("failed to parse Slack config: %w", err)
		}
		notifier = NewSlackNotifier(slackConfig)

	default:
		return nil, fmt.Errorf("unsupported notification channel: %s", config.Channel)
	}

	if err := notifier.ValidateConfig(config.Config); err != nil {
		return nil, err
	}
	return notifier, nil
}

// decodeConfig maps the free-form stored settings onto a typed config
func decodeConfig(config map[string]interface{}, target interface{}) error {
	jsonData, err := json.Marshal(config)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, target)
}

// LoadNotifiers loads all enabled notification configurations and registers notifiers
func (m *Manager) LoadNotifiers() error {
	configs, err := m.store.GetEnabledNotificationConfigs()
	if err != nil {
		return fmt.Errorf("failed to get notification configs: %w", err)
	}

	for i := range configs {
		notifier, err := createNotifierFromConfig(&configs[i])
		if err != nil {
			log.Printf("Failed to create notifier for config '%s': %v", configs[i].Name, err)
			continue
		}

		m.AddNotifier(configs[i].Name, notifier)
	}

	log.Printf("Loaded %d notification channels", m.GetNotifierCount())
	return nil
}

// GetNotifierCount returns the number of active notifiers
func (m *Manager) GetNotifierCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return len(m.notifiers)
}
