package config

import (
	"fmt"
	"time"
)

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OutreachConfig holds the addresses and wording used by reply workflows
type OutreachConfig struct {
	OperatorEmail   string
	ColleagueEmail  string
	Organization    string
	Signatory       string
	DailyEmailLimit int
	InternalDomains []string
	SlotDays        int
}

// BatchConfig controls which inbound messages a run picks up
type BatchConfig struct {
	Query       string
	MaxMessages int
	Interval    time.Duration
}

// IMAPConfig represents the inbound mailbox connection
type IMAPConfig struct {
	Address  string
	Username string
	Password string
	TLS      bool
	Folder   string
	MarkSeen bool
}

// SMTPConfig represents the outbound relay connection
type SMTPConfig struct {
	Address  string
	Username string
	Password string
	StartTLS bool
	From     string
	Timeout  time.Duration
	DryRun   bool
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Type        string
	SQLitePath  string
	MySQLDSN    string
	PostgresDSN string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetOutreach returns the outreach configuration
func (c *Config) GetOutreach() OutreachConfig {
	return OutreachConfig{
		OperatorEmail:   c.GetString("outreach.operator_email"),
		ColleagueEmail:  c.GetString("outreach.colleague_email"),
		Organization:    c.GetString("outreach.organization"),
		Signatory:       c.GetString("outreach.signatory"),
		DailyEmailLimit: c.GetInt("outreach.daily_email_limit"),
		InternalDomains: c.GetStringSlice("outreach.internal_domains"),
		SlotDays:        c.GetInt("outreach.slot_days"),
	}
}

// GetBatch returns the batch configuration
func (c *Config) GetBatch() (BatchConfig, error) {
	interval, err := c.GetDuration("batch.interval")
	if err != nil {
		return BatchConfig{}, fmt.Errorf("invalid batch interval: %w", err)
	}
	maxMessages := c.GetInt("batch.max_messages")
	if maxMessages <= 0 {
		return BatchConfig{}, fmt.Errorf("batch.max_messages must be positive, got %d", maxMessages)
	}
	return BatchConfig{
		Query:       c.GetString("batch.query"),
		MaxMessages: maxMessages,
		Interval:    interval,
	}, nil
}

// GetIMAP returns the inbound mailbox configuration
func (c *Config) GetIMAP() IMAPConfig {
	return IMAPConfig{
		Address:  c.GetString("mailbox.imap.address"),
		Username: c.GetString("mailbox.imap.username"),
		Password: c.GetString("mailbox.imap.password"),
		TLS:      c.GetBool("mailbox.imap.tls"),
		Folder:   c.GetString("mailbox.imap.folder"),
		MarkSeen: c.GetBool("mailbox.imap.mark_seen"),
	}
}

// GetSMTP returns the outbound relay configuration
func (c *Config) GetSMTP() (SMTPConfig, error) {
	timeout, err := c.GetDuration("mailbox.smtp.timeout")
	if err != nil {
		return SMTPConfig{}, fmt.Errorf("invalid smtp timeout: %w", err)
	}
	return SMTPConfig{
		Address:  c.GetString("mailbox.smtp.address"),
		Username: c.GetString("mailbox.smtp.username"),
		Password: c.GetString("mailbox.smtp.password"),
		StartTLS: c.GetBool("mailbox.smtp.starttls"),
		From:     c.GetString("mailbox.smtp.from"),
		Timeout:  timeout,
		DryRun:   c.GetBool("mailbox.smtp.dry_run"),
	}, nil
}

// GetStore returns the persistence configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:        c.GetString("store.type"),
		SQLitePath:  c.GetString("store.sqlite_path"),
		MySQLDSN:    c.GetString("store.mysql_dsn"),
		PostgresDSN: c.GetString("store.postgres_dsn"),
	}
}
