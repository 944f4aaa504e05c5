package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// KindCheckIn is the notification kind for check-in prompts.
const KindCheckIn = "check-in"

// CandidateVenue is one venue offered in a check-in prompt, with display
// metadata. Candidates are ordered ascending by distance.
type CandidateVenue struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// CheckInRequest is the payload handed to the notification subsystem. The
// cache only decides when a prompt should fire; delivery is the collaborator's
// problem.
type CheckInRequest struct {
	RequestID  string           `json:"request_id"`
	UserID     string           `json:"user_id"`
	Kind       string           `json:"kind"`
	Candidates []CandidateVenue `json:"candidates"`
	PushTitle  string           `json:"push_title"`
	PushBody   string           `json:"push_body"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Notifier delivers check-in prompts.
type Notifier interface {
	SendCheckIn(ctx context.Context, req CheckInRequest) error
}

// WebhookNotifier posts check-in requests to the notification subsystem's
// webhook. Outbound requests are rate limited so a burst of location updates
// cannot flood the push pipeline.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// Config holds notifier settings.
type Config struct {
	WebhookURL    string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int     `yaml:"burst" mapstructure:"burst"`
}

// NewWebhookNotifier creates a WebhookNotifier.
func NewWebhookNotifier(cfg Config) *WebhookNotifier {
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 25
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 50
	}
	return &WebhookNotifier{
		url:     cfg.WebhookURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// SendCheckIn implements Notifier.
func (n *WebhookNotifier) SendCheckIn(ctx context.Context, req CheckInRequest) error {
	if n.url == "" {
		zap.L().Debug("notify: no webhook configured, dropping check-in request",
			zap.String("user_id", req.UserID),
		)
		return nil
	}

	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Kind == "" {
		req.Kind = KindCheckIn
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "notify: rate limit wait")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return eris.Wrap(err, "notify: marshal check-in request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}

	zap.L().Info("notify: check-in prompt sent",
		zap.String("request_id", req.RequestID),
		zap.String("user_id", req.UserID),
		zap.Int("candidates", len(req.Candidates)),
	)
	return nil
}
