package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lavpop-sync/internal/config"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioClient sends WhatsApp messages through the Twilio Messages API.
type TwilioClient struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
}

func NewTwilioClient(cfg *config.Config) *TwilioClient {
	return &TwilioClient{
		accountSID: cfg.TwilioAccountSID,
		authToken:  cfg.TwilioAuthToken,
		from:       cfg.TwilioFrom,
		baseURL:    twilioAPIBase,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Configured reports whether credentials are present. Notifications are an
// optional add-on; an unconfigured client is silently skipped.
func (c *TwilioClient) Configured() bool {
	return c.accountSID != "" && c.authToken != "" && c.from != ""
}

// SendWhatsApp sends one message to the given number via the WhatsApp channel.
func (c *TwilioClient) SendWhatsApp(ctx context.Context, to, body string) error {
	if !c.Configured() {
		return fmt.Errorf("twilio is not configured")
	}

	form := url.Values{}
	form.Set("From", "whatsapp:"+c.from)
	form.Set("To", "whatsapp:"+to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twilio returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
