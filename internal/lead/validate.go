package lead

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// phoneE164 is the E.164 contract: leading +, first digit 1-9, up to 15 digits.
var phoneE164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// FieldErrors maps field names to human-readable validation messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for k, v := range fe {
		parts = append(parts, k+": "+v)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate parses a raw JSON body into a CallRequest.
//
// Rules:
// - Unknown extra fields are ignored, never rejected.
// - consent must be exactly the JSON boolean true; false, missing, or a
//   non-boolean value fails under the "consent" key.
// - niche/voice are closed enumerations supplied by configuration.
//
// No side effects on failure: callers must not have touched the rate-limit
// stores before calling this.
func Validate(body []byte, enums Enums) (CallRequest, FieldErrors) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return CallRequest{}, FieldErrors{"body": "request body must be a JSON object"}
	}

	errs := FieldErrors{}
	req := CallRequest{}

	req.Name = strings.TrimSpace(stringField(raw, "name"))
	if req.Name == "" {
		errs["name"] = "name is required"
	}

	req.Email = strings.TrimSpace(stringField(raw, "email"))
	if req.Email == "" {
		errs["email"] = "email is required"
	} else if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		errs["email"] = "email must be a valid address"
	}

	req.Phone = strings.TrimSpace(stringField(raw, "phone"))
	if req.Phone == "" {
		errs["phone"] = "phone is required"
	} else if !phoneE164.MatchString(req.Phone) {
		errs["phone"] = "phone must be in E.164 format, e.g. +14155551234"
	}

	req.Niche = strings.TrimSpace(stringField(raw, "niche"))
	if req.Niche == "" {
		errs["niche"] = "niche is required"
	} else if !enums.ValidNiche(req.Niche) {
		errs["niche"] = fmt.Sprintf("niche must be one of %s", strings.Join(enums.Niches, ", "))
	}

	req.Voice = strings.TrimSpace(stringField(raw, "voice"))
	if req.Voice == "" {
		errs["voice"] = "voice is required"
	} else if !enums.ValidVoice(req.Voice) {
		errs["voice"] = fmt.Sprintf("voice must be one of %s", strings.Join(enums.Voices, ", "))
	}

	consent, ok := boolField(raw, "consent")
	if !ok || !consent {
		errs["consent"] = "consent to be contacted is required"
	}
	req.Consent = consent

	// Optional, read leniently from the raw body.
	req.Company = strings.TrimSpace(stringField(raw, "company"))

	if len(errs) > 0 {
		return CallRequest{}, errs
	}
	return req, nil
}

func stringField(raw map[string]json.RawMessage, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}

// boolField reports the value and whether the field was a JSON boolean.
func boolField(raw map[string]json.RawMessage, key string) (bool, bool) {
	v, ok := raw[key]
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return false, false
	}
	return b, true
}
