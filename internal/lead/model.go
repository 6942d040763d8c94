package lead

// CallRequest is a validated lead form submission.
//
// Immutability invariant: a CallRequest is only constructed by Validate and
// is never mutated afterwards. Downstream stages (rate limiting, agent
// resolution, dispatch) read it as-is; the phone number in particular must
// reach the outbound payload verbatim.
type CallRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Niche   string `json:"niche"`
	Voice   string `json:"voice"`
	Consent bool   `json:"consent"`

	// Company is optional and sits outside the strict schema; it is read
	// from the raw body when present.
	Company string `json:"company,omitempty"`
}

// Enums holds the closed niche/voice enumerations for this deployment.
// Values come from configuration at process start, not from request input.
type Enums struct {
	Niches []string
	Voices []string
}

func (e Enums) ValidNiche(v string) bool { return contains(e.Niches, v) }
func (e Enums) ValidVoice(v string) bool { return contains(e.Voices, v) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
