package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://api.twilio.com/2010-04-01"

// Twilio caps a single message create call at this many characters; longer
// bodies are segmented on their side.
const maxSMSLength = 1600

// TwilioClient sends best-effort SMS alerts through the Twilio Messages API.
// There is no delivery guarantee; Send reports whether Twilio accepted the
// message.
type TwilioClient struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

func NewTwilioClient(accountSID, authToken, fromNumber string, httpClient *http.Client) *TwilioClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &TwilioClient{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
	}
}

func (c *TwilioClient) WithBaseURL(u string) *TwilioClient {
	c.baseURL = u
	return c
}

// Configured reports whether credentials and a sender number are present.
func (c *TwilioClient) Configured() bool {
	return c.accountSID != "" && c.authToken != "" && c.fromNumber != ""
}

// Send queues an SMS to an E.164 phone number. It returns true when Twilio
// reports the message as queued or sent, false otherwise.
func (c *TwilioClient) Send(ctx context.Context, to, body string) bool {
	if !c.Configured() {
		log.Error().Msg("Twilio client not configured; cannot send SMS")
		return false
	}
	if to == "" || body == "" {
		log.Error().Msg("Recipient phone number or message body is missing for SMS")
		return false
	}
	if !validE164(to) {
		log.Error().Str("to", to).Msg("Invalid recipient phone number; must be E.164")
		return false
	}
	if len(body) > maxSMSLength {
		log.Warn().Int("length", len(body)).Msg("SMS body is very long; Twilio will segment it")
	}

	form := url.Values{
		"To":   {to},
		"From": {c.fromNumber},
		"Body": {body},
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		log.Error().Err(err).Msg("Failed to build SMS request")
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("to", to).Msg("Twilio request failed")
		return false
	}
	defer resp.Body.Close()

	var msg struct {
		SID          string `json:"sid"`
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
		Message      string `json:"message"` // error envelope on 4xx
	}
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		log.Error().Err(err).Msg("Failed to decode Twilio response")
		return false
	}

	if resp.StatusCode >= 400 {
		log.Error().Int("status", resp.StatusCode).Str("detail", msg.Message).Str("to", to).Msg("Twilio rejected SMS")
		return false
	}

	log.Info().Str("sid", msg.SID).Str("status", msg.Status).Str("to", to).Msg("SMS submitted")

	switch msg.Status {
	case "queued", "sent", "accepted":
		return true
	default:
		log.Error().Str("status", msg.Status).Str("error", msg.ErrorMessage).Str("to", to).Msg("SMS not accepted")
		return false
	}
}

func validE164(number string) bool {
	if !strings.HasPrefix(number, "+") || len(number) < 8 || len(number) > 16 {
		return false
	}
	for _, r := range number[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
