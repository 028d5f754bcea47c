package dispatch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"sentinel/internal/config"
	"sentinel/internal/dispatch"
	"sentinel/internal/testsupport"
)

func senderConfig(t *testing.T, token, baseURL string) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t, func(cfg *config.Config) {
		cfg.Discord.BotToken = token
		cfg.Discord.APIBaseURL = baseURL
	})
}

func TestNewSenderWithoutTokenIsNoop(t *testing.T) {
	cfg := senderConfig(t, "", "https://discord.com/api/v10")
	sender := dispatch.NewSender(cfg)

	if err := sender.SendMessage(context.Background(), 100, dispatch.Message{}); err != nil {
		t.Fatalf("noop sender must not fail: %v", err)
	}
	if _, ok := sender.(dispatch.SessionValidator); ok {
		t.Fatal("noop sender must not claim a validatable session")
	}
}

func TestSendMessagePostsWithBotAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels/100/messages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bot token-1" {
			t.Fatalf("unexpected authorization: %s", r.Header.Get("Authorization"))
		}
		var msg dispatch.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if len(msg.Embeds) != 1 || msg.Embeds[0].Description != "Body" {
			t.Fatalf("unexpected payload: %#v", msg)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	sender := dispatch.NewSender(senderConfig(t, "token-1", server.URL))
	err := sender.SendMessage(context.Background(), 100, dispatch.Message{
		Embeds: []dispatch.Embed{{Description: "Body"}},
	})
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
}

func TestSendMessageSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Missing Access"}`))
	}))
	t.Cleanup(server.Close)

	sender := dispatch.NewSender(senderConfig(t, "token-1", server.URL))
	if err := sender.SendMessage(context.Background(), 100, dispatch.Message{}); err == nil {
		t.Fatal("expected error on 403 response")
	}
}

func TestSendFileUsesMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		payload := r.FormValue("payload_json")
		if payload == "" {
			t.Fatal("payload_json field missing")
		}
		file, header, err := r.FormFile("files[0]")
		if err != nil {
			t.Fatalf("files[0] missing: %v", err)
		}
		defer file.Close()
		if header.Filename != "log_details.txt" {
			t.Fatalf("unexpected filename: %s", header.Filename)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	sender := dispatch.NewSender(senderConfig(t, "token-1", server.URL))
	err := sender.SendFile(context.Background(), 100, "log_details.txt", []byte("contents"), dispatch.Message{})
	if err != nil {
		t.Fatalf("SendFile returned error: %v", err)
	}
}

func TestValidateChecksIdentity(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/users/@me" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","username":"sentinel"}`))
	}))
	t.Cleanup(server.Close)

	sender := dispatch.NewSender(senderConfig(t, "token-1", server.URL))
	validator, ok := sender.(dispatch.SessionValidator)
	if !ok {
		t.Fatal("token-backed sender must be validatable")
	}
	if err := validator.Validate(context.Background()); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one identity call, got %d", calls)
	}
}
