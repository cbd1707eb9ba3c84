package config

type ServiceConfig struct {
	Name        string           `yaml:"name"`
	Environment string           `yaml:"environment"`
	Version     string           `yaml:"version"`
	ClientURL   string           `yaml:"client_url"`
	Auth        AuthConfig       `yaml:"auth"`
	Provider    ProviderConfig   `yaml:"provider"`
	Quota       QuotaConfig      `yaml:"quota"`
	Completion  CompletionConfig `yaml:"completion"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// ProviderConfig holds the payment provider credentials. KeySecret signs the
// payment verification channel; WebhookSecret signs webhook deliveries.
type ProviderConfig struct {
	KeyID         string `yaml:"key_id"`
	KeySecret     string `yaml:"key_secret"`
	WebhookSecret string `yaml:"webhook_secret"`
}

type QuotaConfig struct {
	DailyFreeLimit int `yaml:"daily_free_limit"`
}

type CompletionConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}
