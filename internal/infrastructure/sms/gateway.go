package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// Gateway delivers messages through an HTTP SMS gateway. Delivery is
// best-effort: callers log and swallow errors.
type Gateway struct {
	url    string
	sender string
	client *http.Client
	log    logger.Logger
}

func NewGateway(url, sender string, timeout time.Duration, log logger.Logger) *Gateway {
	return &Gateway{
		url:    url,
		sender: sender,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

type sendRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

func (g *Gateway) Send(ctx context.Context, msg domain.OutboundMessage) error {
	if msg.Phone == "" {
		g.log.Debug("Recipient has no phone number, skipping SMS", "user_id", msg.UserID)
		return nil
	}

	payload, err := json.Marshal(sendRequest{
		To:   msg.Phone,
		From: g.sender,
		Body: msg.Message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	g.log.Info("SMS sent", "user_id", msg.UserID)
	return nil
}
