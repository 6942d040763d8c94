package agents

import (
	"errors"
	"fmt"

	"leadcall-api/internal/config"
)

// ErrAgentNotConfigured means the client supplied valid enum values but the
// operator never configured an external agent for that pair. This is a
// server-side configuration failure, not a validation error.
var ErrAgentNotConfigured = errors.New("agents: no agent configured for niche/voice pair")

// Directive identifies the external agent and phone number used to place a call.
type Directive struct {
	AgentID       string `json:"agent_id"`
	PhoneNumberID string `json:"phone_number_id"`
}

// Resolver maps a (niche, voice) pair to its external agent directive.
//
// The table is built once from configuration at process start and never
// mutated, so resolution is pure and deterministic for the process lifetime.
type Resolver struct {
	agentIDs      map[string]string
	phoneNumberID string
}

func NewResolver(cfg config.AgentsConfig, phoneNumberID string) *Resolver {
	// Copy so later config mutation cannot change resolution results.
	ids := make(map[string]string, len(cfg.AgentIDs))
	for k, v := range cfg.AgentIDs {
		ids[k] = v
	}
	return &Resolver{agentIDs: ids, phoneNumberID: phoneNumberID}
}

// Resolve looks up the external agent for a validated (niche, voice) pair.
func (r *Resolver) Resolve(niche, voice string) (Directive, error) {
	key := niche + "_" + voice
	id, ok := r.agentIDs[key]
	if !ok || id == "" {
		return Directive{}, fmt.Errorf("%w: %s", ErrAgentNotConfigured, key)
	}
	return Directive{AgentID: id, PhoneNumberID: r.phoneNumberID}, nil
}
