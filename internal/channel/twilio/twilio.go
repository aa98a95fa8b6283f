// Package twilio connects the bot to WhatsApp through Twilio's Messages API.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/labstack/echo/v4"

	"github.com/raphaelgruber/watson-stark/internal/channel"
)

// WebhookPath is where Twilio posts inbound WhatsApp messages.
const WebhookPath = "/webhook"

// DefaultAPIBase is Twilio's REST API root.
const DefaultAPIBase = "https://api.twilio.com/2010-04-01"

// maxBodyLength is Twilio's per-message limit for WhatsApp bodies.
const maxBodyLength = 1600

const emptyTwiML = "<Response/>"

// Config holds the Twilio account credentials and sender number.
type Config struct {
	AccountSID string
	AuthToken  string
	From       string

	// APIBase overrides DefaultAPIBase, e.g. for tests.
	APIBase string
	// MaxRetries bounds resends after 429 and 5xx answers.
	MaxRetries uint64
}

// Adapter receives Twilio webhooks and sends messages through the REST API.
type Adapter struct {
	cfg     Config
	handler channel.Handler
	client  *http.Client
	logger  *slog.Logger
}

// New creates an adapter. Routes are added with Mount.
func New(cfg Config, handler channel.Handler, logger *slog.Logger) *Adapter {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &Adapter{
		cfg:     cfg,
		handler: handler,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With("channel", channel.WhatsApp),
	}
}

// Mount registers POST /webhook.
func (a *Adapter) Mount(e *echo.Echo) {
	e.POST(WebhookPath, a.handleWebhook)
}

// handleWebhook answers the message before acknowledging, so a failed reply
// surfaces to Twilio as a 500.
func (a *Adapter) handleWebhook(c echo.Context) error {
	body := c.FormValue("Body")
	from := c.FormValue("From")
	if from == "" {
		return c.Blob(http.StatusBadRequest, echo.MIMETextXML, []byte(emptyTwiML))
	}
	a.logger.Info("message received", "from", from)

	ctx := c.Request().Context()
	reply := a.handler.HandleMessage(ctx, channel.Inbound{
		Channel:  channel.WhatsApp,
		ChatID:   from,
		UserID:   from,
		UserName: c.FormValue("ProfileName"),
		Text:     body,
	})

	if reply != "" {
		if err := a.Send(ctx, from, reply); err != nil {
			a.logger.Error("reply failed", "to", from, "error", err)
			return c.Blob(http.StatusInternalServerError, echo.MIMETextXML, []byte(emptyTwiML))
		}
	}
	return c.Blob(http.StatusOK, echo.MIMETextXML, []byte(emptyTwiML))
}

// Send delivers text to the WhatsApp address to, splitting long bodies.
func (a *Adapter) Send(ctx context.Context, to, text string) error {
	for _, chunk := range channel.Split(text, maxBodyLength) {
		if err := a.sendOne(ctx, to, chunk); err != nil {
			return err
		}
	}
	return nil
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (a *Adapter) sendOne(ctx context.Context, to, body string) error {
	data := url.Values{}
	data.Set("To", to)
	data.Set("From", a.cfg.From)
	data.Set("Body", body)
	apiURL := fmt.Sprintf("%s/Accounts/%s/Messages.json", a.cfg.APIBase, a.cfg.AccountSID)

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(data.Encode()))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.SetBasicAuth(a.cfg.AccountSID, a.cfg.AuthToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := a.client.Do(req)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 400 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}

		var apiErr apiError
		raw, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(raw, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		err = fmt.Errorf("twilio API error %d: %s", resp.StatusCode, apiErr.Message)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithMaxRetries(backoff.WithContext(newSendBackOff(), ctx), a.cfg.MaxRetries)
	return backoff.Retry(op, policy)
}

func newSendBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	return b
}
