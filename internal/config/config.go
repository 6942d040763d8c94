package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	Redis     RedisConfig
	Dispatch  DispatchConfig
	RateLimit RateLimitConfig
	Agents    AgentsConfig
}

type AppConfig struct {
	Env  string
	Port int
}

// RedisConfig is optional. When Host is empty the rate limiter falls back to
// the in-process store, which resets on restart.
type RedisConfig struct {
	Host string
	Port int
}

// DispatchMode selects how outbound call orders leave the process.
type DispatchMode string

const (
	// DispatchModeDirect posts straight to the voice platform's REST API.
	DispatchModeDirect DispatchMode = "direct"
	// DispatchModeWebhook posts to an intermediary automation webhook that
	// forwards to the voice platform.
	DispatchModeWebhook DispatchMode = "webhook"
)

type DispatchConfig struct {
	Mode DispatchMode

	// Direct mode.
	BaseURL       string
	APIKey        string
	PhoneNumberID string

	// Webhook mode.
	WebhookURL string

	// Timeout bounds the single outbound HTTP attempt.
	Timeout time.Duration
}

type RateLimitConfig struct {
	IPCooldown    time.Duration
	PhoneCooldown time.Duration
}

// AgentsConfig carries the closed niche/voice enumerations and one external
// agent id per supported (niche, voice) pair, keyed AGENT_ID_<NICHE>_<VOICE>.
// A valid pair with no configured agent is an operator error surfaced at
// request time, not at startup.
type AgentsConfig struct {
	Niches []string
	Voices []string

	// AgentIDs is keyed by niche + "_" + voice.
	AgentIDs map[string]string
}

const (
	defaultDispatchTimeout = 30 * time.Second
	defaultIPCooldown      = 60 * time.Second
	defaultPhoneCooldown   = time.Hour

	defaultNiches = "property,edu_consultant"
	defaultVoices = "male,female,eric,hope"
)

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if c.Redis.Host != "" {
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Dispatch.Mode = DispatchMode(strings.TrimSpace(os.Getenv("DISPATCH_MODE")))
	c.Dispatch.BaseURL = strings.TrimSpace(os.Getenv("ELEVENLABS_BASE_URL"))
	c.Dispatch.APIKey = os.Getenv("ELEVENLABS_API_KEY")
	c.Dispatch.PhoneNumberID = strings.TrimSpace(os.Getenv("ELEVENLABS_PHONE_NUMBER_ID"))
	c.Dispatch.WebhookURL = strings.TrimSpace(os.Getenv("WEBHOOK_URL"))
	c.Dispatch.Timeout = mustDuration("DISPATCH_TIMEOUT")

	c.RateLimit.IPCooldown = mustDuration("IP_COOLDOWN")
	c.RateLimit.PhoneCooldown = mustDuration("PHONE_COOLDOWN")

	c.Agents.Niches = splitList(getenvDefault("NICHES", defaultNiches))
	c.Agents.Voices = splitList(getenvDefault("VOICES", defaultVoices))
	c.Agents.AgentIDs = loadAgentIDs(c.Agents.Niches, c.Agents.Voices)

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	switch c.Dispatch.Mode {
	case DispatchModeDirect:
		if c.Dispatch.BaseURL == "" {
			errs = append(errs, errors.New("ELEVENLABS_BASE_URL is required in direct mode"))
		}
		if c.Dispatch.APIKey == "" {
			errs = append(errs, errors.New("ELEVENLABS_API_KEY is required in direct mode"))
		}
		if c.Dispatch.PhoneNumberID == "" {
			errs = append(errs, errors.New("ELEVENLABS_PHONE_NUMBER_ID is required in direct mode"))
		}
	case DispatchModeWebhook:
		if c.Dispatch.WebhookURL == "" {
			errs = append(errs, errors.New("WEBHOOK_URL is required in webhook mode"))
		}
	case "":
		errs = append(errs, errors.New("DISPATCH_MODE is required"))
	default:
		errs = append(errs, fmt.Errorf("DISPATCH_MODE must be direct or webhook, got %q", c.Dispatch.Mode))
	}

	if c.Dispatch.Timeout <= 0 {
		c.Dispatch.Timeout = defaultDispatchTimeout
	}
	if c.RateLimit.IPCooldown <= 0 {
		c.RateLimit.IPCooldown = defaultIPCooldown
	}
	if c.RateLimit.PhoneCooldown <= 0 {
		c.RateLimit.PhoneCooldown = defaultPhoneCooldown
	}
	if c.RateLimit.PhoneCooldown < c.RateLimit.IPCooldown {
		errs = append(errs, errors.New("PHONE_COOLDOWN must not be shorter than IP_COOLDOWN"))
	}

	if len(c.Agents.Niches) == 0 {
		errs = append(errs, errors.New("NICHES must name at least one niche"))
	}
	if len(c.Agents.Voices) == 0 {
		errs = append(errs, errors.New("VOICES must name at least one voice"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// loadAgentIDs reads AGENT_ID_<NICHE>_<VOICE> for every configured pair.
// Unset pairs are simply absent from the map.
func loadAgentIDs(niches, voices []string) map[string]string {
	out := make(map[string]string, len(niches)*len(voices))
	for _, n := range niches {
		for _, v := range voices {
			key := "AGENT_ID_" + strings.ToUpper(n) + "_" + strings.ToUpper(v)
			id := strings.TrimSpace(os.Getenv(key))
			if id != "" {
				out[n+"_"+v] = id
			}
		}
	}
	return out
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
