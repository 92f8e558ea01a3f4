package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mamadbah2/fieldpay/internal/config"
)

func TestSendTextMessageRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v20.0/123/messages" || r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"try later","code":2}}`))
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["to"] != "15550100001" {
			t.Errorf("unexpected recipient %v", body["to"])
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	c := NewClient(config.WhatsAppConfig{BaseURL: srv.URL, APIVersion: "v20.0", AccessToken: "tok", PhoneNumberID: "123"})
	c.httpClient.SetRetryWaitTime(0)

	resp, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "15550100001", Body: "hi"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].ID != "wamid.1" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("unexpected response %+v after %d calls", resp, calls)
	}
}

func TestSendTextMessageClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid recipient","code":131030}}`))
	}))
	defer srv.Close()

	c := NewClient(config.WhatsAppConfig{BaseURL: srv.URL, APIVersion: "v20.0", PhoneNumberID: "123"})
	_, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "hi"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 131030 || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected APIError, got %v", err)
	}
}
