package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// emailBatchSize caps the number of addresses per provider call. Chunking
// large recipient lists is the dispatcher's job, not the message engine's.
const emailBatchSize = 50

type ResendConfig struct {
	APIKey string
	APIURL string
	From   string
}

// NewResendConfig reads the Resend settings. Missing settings disable
// outbound email rather than failing the process; messages still flow, only
// the email copy is skipped.
func NewResendConfig(log *zap.Logger) *ResendConfig {
	cfg := &ResendConfig{
		APIKey: os.Getenv("RESEND_API_KEY"),
		APIURL: os.Getenv("RESEND_API_URL"),
		From:   os.Getenv("FROM_EMAIL"),
	}
	if cfg.APIKey == "" || cfg.APIURL == "" || cfg.From == "" {
		log.Warn("Resend environment variables missing, email dispatch disabled")
	}
	return cfg
}

type EmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html"`
}

type EmailService struct {
	Config *ResendConfig
	client *http.Client
	log    *zap.Logger
}

func NewEmailService(lc fx.Lifecycle, config *ResendConfig, log *zap.Logger) *EmailService {
	service := &EmailService{
		Config: config,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Email service initialized")
			return nil
		},
	})
	return service
}

func (e *EmailService) enabled() bool {
	return e.Config.APIKey != "" && e.Config.APIURL != "" && e.Config.From != ""
}

// SendBatch delivers one subject/body to every address, chunked to stay
// within provider limits. A failed chunk is logged and skipped; remaining
// chunks are still attempted.
func (e *EmailService) SendBatch(ctx context.Context, to []string, subject, html string) error {
	if !e.enabled() {
		e.log.Warn("Email dispatch skipped, Resend not configured", zap.Int("recipients", len(to)))
		return nil
	}
	batches, failed := 0, 0
	for start := 0; start < len(to); start += emailBatchSize {
		end := start + emailBatchSize
		if end > len(to) {
			end = len(to)
		}
		batches++
		if err := e.send(ctx, to[start:end], subject, html); err != nil {
			e.log.Warn("Email batch failed", zap.Int("batch", batches), zap.Error(err))
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d email batches failed", failed, batches)
	}
	e.log.Info("Email dispatched", zap.Int("recipients", len(to)), zap.Int("batches", batches))
	return nil
}

func (e *EmailService) send(ctx context.Context, to []string, subject, html string) error {
	payload := EmailRequest{
		From:    e.Config.From,
		To:      to,
		Subject: subject,
		Html:    html,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Config.APIURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.Config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorResponse map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errorResponse)
		return fmt.Errorf("failed to send email, status code: %d, error: %v", resp.StatusCode, errorResponse)
	}
	return nil
}
