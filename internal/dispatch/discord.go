package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"sentinel/internal/config"
)

const senderUserAgent = "Sentinel/0.1.0"

// NewSender builds a channel sender backed by the Discord REST API when a
// bot token is configured. Without a token a noop implementation is
// returned and channel destinations are effectively disabled.
func NewSender(cfg *config.Config) ChannelSender {
	token := strings.TrimSpace(cfg.Discord.BotToken)
	if token == "" {
		return noopSender{}
	}

	timeout := time.Duration(cfg.Discord.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &restSender{
		baseURL: strings.TrimRight(cfg.Discord.APIBaseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

type restSender struct {
	baseURL string
	token   string
	client  *http.Client
}

func (s *restSender) SendMessage(ctx context.Context, channelID int64, msg Message) error {
	encoded, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/channels/%d/messages", s.baseURL, channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build message request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *restSender) SendFile(ctx context.Context, channelID int64, filename string, data []byte, msg Message) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := writer.WriteField("payload_json", string(payload)); err != nil {
		return fmt.Errorf("write payload field: %w", err)
	}
	part, err := writer.CreateFormFile("files[0]", filename)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/channels/%d/messages", s.baseURL, channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("build file request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return s.do(req)
}

// Validate confirms the bot token by fetching the bot's own identity.
func (s *restSender) Validate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/users/@me", nil)
	if err != nil {
		return fmt.Errorf("build identity request: %w", err)
	}
	return s.do(req)
}

func (s *restSender) do(req *http.Request) error {
	req.Header.Set("Authorization", "Bot "+s.token)
	req.Header.Set("User-Agent", senderUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// SessionValidator is implemented by senders that can confirm their
// credentials before the engine is marked ready.
type SessionValidator interface {
	Validate(ctx context.Context) error
}

type noopSender struct{}

func (noopSender) SendMessage(context.Context, int64, Message) error { return nil }

func (noopSender) SendFile(context.Context, int64, string, []byte, Message) error { return nil }
