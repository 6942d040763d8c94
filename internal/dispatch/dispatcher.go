package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadcall-api/internal/agents"
	"leadcall-api/internal/lead"
)

// CallDispatcher tells an external platform to place a call.
//
// Rules:
// - No platform HTTP calls outside dispatch adapters.
// - Exactly one synchronous attempt per order: no retries, no backoff, no
//   distinction between transient and permanent upstream failures.
// - Keep the order type platform-agnostic; the wire payload is built here.
type CallDispatcher interface {
	Name() string
	PlaceCall(ctx context.Context, order CallOrder) (Receipt, error)
}

// CallOrder is a validated, rate-limited, agent-resolved request to call a lead.
type CallOrder struct {
	Lead      lead.CallRequest
	Directive agents.Directive
}

// Receipt carries the upstream response for the success envelope and diagnostics.
type Receipt struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// UpstreamError preserves the platform's raw rejection for diagnostics.
// Any non-2xx upstream status is terminal for the request.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("dispatch: upstream returned %d: %s", e.Status, e.Body)
}

// Payload is the JSON body sent to the voice platform (directly or via the
// intermediary webhook, which forwards it unchanged).
type Payload struct {
	CallName           string      `json:"call_name"`
	AgentID            string      `json:"agent_id"`
	AgentPhoneNumberID string      `json:"agent_phone_number_id"`
	ScheduledTimeUnix  int64       `json:"scheduled_time_unix"`
	Recipients         []Recipient `json:"recipients"`
}

type Recipient struct {
	PhoneNumber string `json:"phone_number"`

	ConversationInitiationClientData ClientData `json:"conversation_initiation_client_data"`
}

// ClientData carries dynamic variables for the agent's conversation script.
type ClientData struct {
	DynamicVariables map[string]string `json:"dynamic_variables"`
}

const callNamePrefix = "Lead Call"

// BuildPayload shapes the outbound body for a call order.
//
// The call name is advisory: sortable, unique at second granularity,
// collisions tolerated. Scheduling is always immediate.
func BuildPayload(order CallOrder, now time.Time) Payload {
	vars := map[string]string{
		"name":  order.Lead.Name,
		"email": order.Lead.Email,
		"niche": order.Lead.Niche,
	}
	if order.Lead.Company != "" {
		vars["company"] = order.Lead.Company
	}

	return Payload{
		CallName:           callNamePrefix + " " + now.UTC().Format("2006-01-02 15:04:05"),
		AgentID:            order.Directive.AgentID,
		AgentPhoneNumberID: order.Directive.PhoneNumberID,
		ScheduledTimeUnix:  now.Unix(),
		Recipients: []Recipient{
			{
				PhoneNumber:                      order.Lead.Phone,
				ConversationInitiationClientData: ClientData{DynamicVariables: vars},
			},
		},
	}
}

// rawReceiptBody makes an upstream body safe to embed in a JSON response.
// Non-JSON bodies are wrapped as a JSON string.
func rawReceiptBody(body []byte) json.RawMessage {
	if len(body) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return json.RawMessage("null")
	}
	return quoted
}
