package alert

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slack-go/slack"
)

func TestAlerter_PostsAttachment(t *testing.T) {
	var got slack.WebhookMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("unmarshal webhook body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := New(srv.URL)
	if !a.Enabled() {
		t.Fatal("alerter should be enabled")
	}
	if err := a.Error(context.Background(), "bot offline", "gateway closed"); err != nil {
		t.Fatalf("Error: %v", err)
	}

	if len(got.Attachments) != 1 {
		t.Fatalf("attachments = %+v", got.Attachments)
	}
	att := got.Attachments[0]
	if att.Title != "bot offline" || att.Text != "gateway closed" || att.Color != colorError {
		t.Errorf("attachment = %+v", att)
	}
}

func TestAlerter_DisabledIsNoOp(t *testing.T) {
	a := New("")
	if a.Enabled() {
		t.Error("empty URL should disable alerting")
	}
	if err := a.Info(context.Background(), "t", "x"); err != nil {
		t.Errorf("disabled alerter returned %v", err)
	}
}
