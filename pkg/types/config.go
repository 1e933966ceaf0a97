package types

// Config is the application configuration, merged from config files and
// environment overrides.
type Config struct {
	// Model selects the default engine as "provider/model"
	// (e.g. "openai/gpt-4o" or "anthropic/claude-sonnet-4-20250514").
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Provider holds per-provider engine settings keyed by provider ID.
	Provider map[string]ProviderConfig `json:"provider,omitempty" yaml:"provider,omitempty"`

	// Conversation settings.
	MaxHistory           int     `json:"maxHistory,omitempty" yaml:"maxHistory,omitempty"`
	Temperature          float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	ContextFiles         int     `json:"contextFiles,omitempty" yaml:"contextFiles,omitempty"`
	ContextCharBudget    int     `json:"contextCharBudget,omitempty" yaml:"contextCharBudget,omitempty"`
	ContextRefreshWindow int     `json:"contextRefreshWindow,omitempty" yaml:"contextRefreshWindow,omitempty"`

	// Session settings, in seconds.
	SessionTimeout int `json:"sessionTimeout,omitempty" yaml:"sessionTimeout,omitempty"`
	SweepInterval  int `json:"sweepInterval,omitempty" yaml:"sweepInterval,omitempty"`

	// UploadDir is where multipart uploads are stored.
	UploadDir string `json:"uploadDir,omitempty" yaml:"uploadDir,omitempty"`

	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`
}

// ProviderConfig holds engine settings for a single provider.
type ProviderConfig struct {
	APIKey    string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	BaseURL   string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Model     string `json:"model,omitempty" yaml:"model,omitempty"`
	MaxTokens int    `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Pretty bool   `json:"pretty,omitempty" yaml:"pretty,omitempty"`
}
