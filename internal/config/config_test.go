package config

import (
	"testing"
	"time"
)

func TestLoad_ReportsMissingRequired(t *testing.T) {
	// Ensure a clean env by not setting anything and calling validation directly.
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_DirectModeRequiresCredentials(t *testing.T) {
	c := Config{
		App:      AppConfig{Env: "local", Port: 8080},
		Dispatch: DispatchConfig{Mode: DispatchModeDirect},
		Agents:   AgentsConfig{Niches: []string{"property"}, Voices: []string{"male"}},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for direct mode without credentials")
	}
}

func TestValidate_WebhookModeRequiresURL(t *testing.T) {
	c := Config{
		App:      AppConfig{Env: "local", Port: 8080},
		Dispatch: DispatchConfig{Mode: DispatchModeWebhook},
		Agents:   AgentsConfig{Niches: []string{"property"}, Voices: []string{"male"}},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for webhook mode without WEBHOOK_URL")
	}
}

func TestValidate_AppliesCooldownDefaults(t *testing.T) {
	c := Config{
		App:      AppConfig{Env: "local", Port: 8080},
		Dispatch: DispatchConfig{Mode: DispatchModeWebhook, WebhookURL: "https://hooks.example.com/call"},
		Agents:   AgentsConfig{Niches: []string{"property"}, Voices: []string{"male"}},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.RateLimit.IPCooldown != 60*time.Second {
		t.Fatalf("expected 60s ip cooldown default, got %v", c.RateLimit.IPCooldown)
	}
	if c.RateLimit.PhoneCooldown != time.Hour {
		t.Fatalf("expected 1h phone cooldown default, got %v", c.RateLimit.PhoneCooldown)
	}
	if c.Dispatch.Timeout != 30*time.Second {
		t.Fatalf("expected 30s dispatch timeout default, got %v", c.Dispatch.Timeout)
	}
}

func TestLoadAgentIDs_KeyShape(t *testing.T) {
	t.Setenv("AGENT_ID_PROPERTY_ERIC", "agent_123")
	t.Setenv("AGENT_ID_EDU_CONSULTANT_HOPE", "agent_456")

	ids := loadAgentIDs([]string{"property", "edu_consultant"}, []string{"eric", "hope"})
	if ids["property_eric"] != "agent_123" {
		t.Fatalf("expected property_eric mapping, got %q", ids["property_eric"])
	}
	if ids["edu_consultant_hope"] != "agent_456" {
		t.Fatalf("expected edu_consultant_hope mapping, got %q", ids["edu_consultant_hope"])
	}
	if _, ok := ids["property_hope"]; ok {
		t.Fatalf("expected unset pair to be absent")
	}
}
