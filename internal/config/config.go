// Package config provides configuration types and loading for hearth.
package config

import "time"

// Config is the root configuration struct.
// Top-level groups: Household, Provider, Channels, Gateway, Scheduler, Audit.
type Config struct {
	Household HouseholdConfig `json:"household"`
	Provider  ProviderConfig  `json:"provider"`
	Channels  ChannelsConfig  `json:"channels"`
	Gateway   GatewayConfig   `json:"gateway"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Audit     AuditConfig     `json:"audit"`
	Store     StoreConfig     `json:"store"`
	RateLimit RateLimitConfig `json:"rateLimit"`
}

// HouseholdConfig describes the household the assistant watches for.
type HouseholdConfig struct {
	ID          string   `json:"id" envconfig:"ID"`
	ParentA     string   `json:"parentA" envconfig:"PARENT_A"`
	ParentB     string   `json:"parentB,omitempty" envconfig:"PARENT_B"`
	Children    []string `json:"children"`
	Timezone    string   `json:"timezone" envconfig:"TIMEZONE"`
	PickupStart string   `json:"pickupStart" envconfig:"PICKUP_START"` // "15:04" local
	PickupEnd   string   `json:"pickupEnd" envconfig:"PICKUP_END"`
}

// ProviderConfig configures the external calendar provider.
type ProviderConfig struct {
	WebhookURL      string        `json:"webhookUrl" envconfig:"WEBHOOK_URL"`
	CredentialsFile string        `json:"credentialsFile" envconfig:"CREDENTIALS_FILE"`
	TokenFile       string        `json:"tokenFile" envconfig:"TOKEN_FILE"`
	ChannelTTL      time.Duration `json:"channelTtl"`
	RenewWindow     time.Duration `json:"renewWindow"`
	// Calendars maps a watched calendar id to the household member who owns
	// it ("both" for a shared calendar).
	Calendars map[string]string `json:"calendars"`
}

// OwnerOf returns the household member owning a calendar, defaulting to the
// calendar id itself when unmapped.
func (p ProviderConfig) OwnerOf(calendarID string) string {
	if owner, ok := p.Calendars[calendarID]; ok {
		return owner
	}
	return calendarID
}

// ChannelsConfig contains all notification channel configurations.
type ChannelsConfig struct {
	Slack  SlackConfig  `json:"slack"`
	Bridge BridgeConfig `json:"bridge"`
}

// SlackConfig configures the Slack notification channel.
type SlackConfig struct {
	Enabled  bool   `json:"enabled" envconfig:"SLACK_ENABLED"`
	BotToken string `json:"botToken" envconfig:"SLACK_BOT_TOKEN"`
	// Recipients maps a household member name to a Slack channel or user ID.
	Recipients map[string]string `json:"recipients"`
}

// BridgeConfig configures the outbound SMS/email bridge channel.
// The bridge receives a JSON POST per message and handles the last mile.
type BridgeConfig struct {
	Enabled     bool   `json:"enabled" envconfig:"BRIDGE_ENABLED"`
	OutboundURL string `json:"outboundUrl" envconfig:"BRIDGE_OUTBOUND_URL"`
	AuthToken   string `json:"authToken" envconfig:"BRIDGE_AUTH_TOKEN"`
	// Recipients maps a household member name to a phone number or address.
	Recipients map[string]string `json:"recipients"`
}

// GatewayConfig contains webhook server settings.
type GatewayConfig struct {
	Host string `json:"host" envconfig:"HOST"`
	Port int    `json:"port" envconfig:"PORT"`
	// MaxWorkers bounds the background sync+detect pool.
	MaxWorkers int `json:"maxWorkers" envconfig:"MAX_WORKERS"`
}

// SchedulerConfig contains sweep scheduling settings.
type SchedulerConfig struct {
	Enabled       bool          `json:"enabled" envconfig:"ENABLED"`
	TickInterval  time.Duration `json:"tickInterval"`
	RenewCron     string        `json:"renewCron"`
	ExpireCron    string        `json:"expireCron"`
	CleanupCron   string        `json:"cleanupCron"`
	MemoryCron    string        `json:"memoryCron"`
	LockPath      string        `json:"lockPath"`
	MaxConcSweeps int           `json:"maxConcSweeps"`
}

// AuditConfig configures the optional Kafka audit stream.
type AuditConfig struct {
	Enabled bool   `json:"enabled" envconfig:"AUDIT_ENABLED"`
	Brokers string `json:"brokers" envconfig:"AUDIT_BROKERS"`
	Topic   string `json:"topic" envconfig:"AUDIT_TOPIC"`
}

// StoreConfig contains persistence settings.
type StoreConfig struct {
	Path string `json:"path" envconfig:"PATH"`
}

// RateLimitConfig bounds outbound notifications per recipient.
type RateLimitConfig struct {
	Burst          int           `json:"burst"`
	RefillInterval time.Duration `json:"refillInterval"`
}
