package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOneSignalClient_SendBroadcast(t *testing.T) {
	var captured oneSignalRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notifications" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Basic test-api-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(oneSignalResponse{ID: "notif-1", Recipients: 42})
	}))
	defer srv.Close()

	client := NewOneSignalClient("test-app", "test-api-key").WithBaseURL(srv.URL)
	res, err := client.Send(context.Background(), Message{
		Title: "Cita confirmada",
		Body:  "Su cita fue registrada",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.NotificationID != "notif-1" {
		t.Errorf("NotificationID = %q, want notif-1", res.NotificationID)
	}
	if res.Recipients != 42 {
		t.Errorf("Recipients = %d, want 42", res.Recipients)
	}
	if captured.AppID != "test-app" {
		t.Errorf("app_id = %q", captured.AppID)
	}
	if len(captured.IncludedSegments) != 1 || captured.IncludedSegments[0] != "All" {
		t.Errorf("included_segments = %v, want [All]", captured.IncludedSegments)
	}
	// Spanish content mirrored into English when no translation given.
	if captured.Contents["en"] != "Su cita fue registrada" || captured.Contents["es"] != "Su cita fue registrada" {
		t.Errorf("contents = %v", captured.Contents)
	}
}

func TestOneSignalClient_SendToUser(t *testing.T) {
	var captured oneSignalRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(oneSignalResponse{ID: "notif-2", Recipients: 1})
	}))
	defer srv.Close()

	client := NewOneSignalClient("test-app", "key").WithBaseURL(srv.URL)
	_, err := client.Send(context.Background(), Message{
		Title:  "Recordatorio",
		Body:   "Su cita es manana",
		UserID: "user-55",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(captured.IncludedSegments) != 0 {
		t.Errorf("expected no segments for targeted send, got %v", captured.IncludedSegments)
	}
	if len(captured.Filters) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(captured.Filters))
	}
	f := captured.Filters[0]
	if f.Field != "tag" || f.Key != "user_id" || f.Value != "user-55" {
		t.Errorf("filter = %+v", f)
	}
}

func TestOneSignalClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":["app_id not found"]}`))
	}))
	defer srv.Close()

	client := NewOneSignalClient("bad-app", "key").WithBaseURL(srv.URL)
	_, err := client.Send(context.Background(), Message{Title: "x", Body: "y"})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestOneSignalClient_RejectedNotification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// OneSignal can return 200 with an errors array (e.g. no subscribers).
		w.Write([]byte(`{"id":"","recipients":0,"errors":["All included players are not subscribed"]}`))
	}))
	defer srv.Close()

	client := NewOneSignalClient("app", "key").WithBaseURL(srv.URL)
	_, err := client.Send(context.Background(), Message{Title: "x", Body: "y"})
	if err == nil {
		t.Fatal("expected error for rejected notification")
	}
}
