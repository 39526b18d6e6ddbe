package sepay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const callbackEndpoint = "/api/sepay/callback"

// Client delivers gateway-style callbacks to the shop.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func (c *Client) LoggerComponent() string {
	return "Sepay.Client"
}

func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("sepay: empty base url")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     log.Logger,
	}

	for _, o := range opts {
		o(c)
	}

	c.logger = c.logger.With().Str("component", c.LoggerComponent()).Logger()

	return c, nil
}

type ClientOption func(*Client)

func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// RemoteError is returned for any response with status 400 or above.
// Body carries the decoded acknowledgement when the shop sent one.
type RemoteError struct {
	ResponseBody string
	StatusCode   int
	Body         *CallbackResponse
}

func (e *RemoteError) Error() string {
	if e.Body != nil && e.Body.Message != "" {
		return fmt.Sprintf("sepay: remote %d: %s", e.StatusCode, e.Body.Message)
	}
	return fmt.Sprintf("sepay: remote %d: %s", e.StatusCode, e.ResponseBody)
}

// SendCallback posts the notification authenticated with apiKey.
// A 200 with success=false is returned as a response, not an error.
func (c *Client) SendCallback(ctx context.Context, apiKey string, in *CallbackRequest) (*CallbackResponse, error) {
	l := c.logger.With().
		Str("method", "SendCallback").
		Str("transaction_id", in.TransactionID).
		Logger()

	rawJSON, err := json.Marshal(in)
	if err != nil {
		return nil, errors.Wrap(err, "json encode")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+callbackEndpoint, bytes.NewReader(rawJSON))
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Apikey "+apiKey)
	}

	l.Debug().Object("request", in).Msg("Doing request")

	res, err := c.httpClient.Do(req)
	if err != nil {
		l.Error().Err(err).Msg("Call failed")
		return nil, errors.Wrap(err, "do request")
	}

	if res.StatusCode >= 400 {
		body := readString(res.Body)
		remote := &RemoteError{ResponseBody: body, StatusCode: res.StatusCode}
		out := &CallbackResponse{}
		if json.Unmarshal([]byte(body), out) == nil {
			remote.Body = out
		}
		l.Error().Int("http_status", res.StatusCode).Str("http_body", body).Msg("Shop responded with error")
		return nil, remote
	}

	out := &CallbackResponse{}
	if err := readJSON(res.Body, out); err != nil {
		return nil, errors.Wrap(err, "body read")
	}

	l.Debug().Bool("success", out.Success).Str("message", out.Message).Msg("SendCallback done")

	return out, nil
}

// RedirectURL builds the browser redirect the gateway issues after checkout.
func (c *Client) RedirectURL(in *CallbackRequest) string {
	v := url.Values{}
	v.Set("status", in.Status)
	v.Set("transaction_id", in.TransactionID)
	v.Set("amount", strconv.FormatInt(in.Amount, 10))
	return c.baseURL + callbackEndpoint + "?" + v.Encode()
}
