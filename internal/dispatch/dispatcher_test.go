package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadcall-api/internal/agents"
	"leadcall-api/internal/lead"
)

func testOrder() CallOrder {
	return CallOrder{
		Lead: lead.CallRequest{
			Name:    "John Doe",
			Email:   "john@example.com",
			Phone:   "+14155551234",
			Niche:   "property",
			Voice:   "eric",
			Consent: true,
			Company: "Acme",
		},
		Directive: agents.Directive{AgentID: "agent_prop_eric", PhoneNumberID: "pn_123"},
	}
}

func TestBuildPayload_RecipientPhoneVerbatim(t *testing.T) {
	now := time.Unix(1700000000, 0)
	p := BuildPayload(testOrder(), now)

	if len(p.Recipients) != 1 {
		t.Fatalf("expected exactly one recipient, got %d", len(p.Recipients))
	}
	if p.Recipients[0].PhoneNumber != "+14155551234" {
		t.Fatalf("expected verbatim phone, got %q", p.Recipients[0].PhoneNumber)
	}
	if p.AgentID != "agent_prop_eric" || p.AgentPhoneNumberID != "pn_123" {
		t.Fatalf("unexpected agent fields: %q %q", p.AgentID, p.AgentPhoneNumberID)
	}
	if p.ScheduledTimeUnix != now.Unix() {
		t.Fatalf("expected immediate schedule, got %d", p.ScheduledTimeUnix)
	}
}

func TestBuildPayload_CallNameSortableTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 9, 14, 30, 5, 0, time.UTC)
	p := BuildPayload(testOrder(), now)
	want := "Lead Call 2025-03-09 14:30:05"
	if p.CallName != want {
		t.Fatalf("expected %q, got %q", want, p.CallName)
	}
}

func TestBuildPayload_DynamicVariables(t *testing.T) {
	p := BuildPayload(testOrder(), time.Unix(1700000000, 0))
	vars := p.Recipients[0].ConversationInitiationClientData.DynamicVariables
	if vars["name"] != "John Doe" || vars["email"] != "john@example.com" {
		t.Fatalf("unexpected dynamic variables: %v", vars)
	}
	if vars["company"] != "Acme" {
		t.Fatalf("expected company variable, got %v", vars)
	}

	order := testOrder()
	order.Lead.Company = ""
	p = BuildPayload(order, time.Unix(1700000000, 0))
	if _, ok := p.Recipients[0].ConversationInitiationClientData.DynamicVariables["company"]; ok {
		t.Fatalf("expected company omitted when empty")
	}
}

func TestElevenLabsDispatcher_PostsPayloadWithAPIKey(t *testing.T) {
	var gotPath, gotKey, gotContentType string
	var gotPayload Payload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotPayload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"batch_id":"b1"}`))
	}))
	defer srv.Close()

	d := NewElevenLabsDispatcher(srv.URL, "secret-key", 5*time.Second)
	d.Now = func() time.Time { return time.Unix(1700000000, 0) }

	rec, err := d.PlaceCall(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotPath != "/v1/convai/batch-calling/submit" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "secret-key" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotContentType != "application/json" {
		t.Fatalf("expected json content type, got %q", gotContentType)
	}
	if gotPayload.Recipients[0].PhoneNumber != "+14155551234" {
		t.Fatalf("expected verbatim phone on the wire, got %q", gotPayload.Recipients[0].PhoneNumber)
	}
	if rec.Status != http.StatusOK {
		t.Fatalf("expected 200 receipt, got %d", rec.Status)
	}
	if string(rec.Body) != `{"batch_id":"b1"}` {
		t.Fatalf("expected upstream body preserved, got %s", rec.Body)
	}
}

func TestElevenLabsDispatcher_NonSuccessBecomesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"detail":"quota exceeded"}`))
	}))
	defer srv.Close()

	d := NewElevenLabsDispatcher(srv.URL, "k", 5*time.Second)
	_, err := d.PlaceCall(context.Background(), testOrder())
	if err == nil {
		t.Fatalf("expected error")
	}
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if ue.Status != http.StatusPaymentRequired {
		t.Fatalf("expected upstream status preserved, got %d", ue.Status)
	}
	if ue.Body != `{"detail":"quota exceeded"}` {
		t.Fatalf("expected raw body preserved, got %q", ue.Body)
	}
}

func TestWebhookDispatcher_PostsSamePayloadShape(t *testing.T) {
	var gotPayload Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotPayload)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, 5*time.Second)
	d.Now = func() time.Time { return time.Unix(1700000000, 0) }

	rec, err := d.PlaceCall(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotPayload.AgentID != "agent_prop_eric" {
		t.Fatalf("expected same payload shape, got %+v", gotPayload)
	}
	// Non-JSON upstream body must still be embeddable in a JSON response.
	if string(rec.Body) != `"ok"` {
		t.Fatalf("expected quoted non-json body, got %s", rec.Body)
	}
}

func TestRawReceiptBody(t *testing.T) {
	if got := string(rawReceiptBody(nil)); got != "null" {
		t.Fatalf("expected null for empty body, got %s", got)
	}
	if got := string(rawReceiptBody([]byte(`{"a":1}`))); got != `{"a":1}` {
		t.Fatalf("expected json passthrough, got %s", got)
	}
	if got := string(rawReceiptBody([]byte("plain"))); got != `"plain"` {
		t.Fatalf("expected quoting, got %s", got)
	}
}
