package mpesa

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// Client talks to the Daraja API: OAuth token fetch plus STK push
// initiation. The sandbox and production environments differ only in
// base URL and credentials.
type Client struct {
	http        *resty.Client
	consumerKey string
	secret      string
	shortcode   string
	passkey     string
	callbackURL string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time

	now func() time.Time
}

type Option func(*Client)

// WithClock overrides the clock, used by tests for deterministic passwords.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(baseURL, consumerKey, secret, shortcode, passkey, callbackURL string, opts ...Option) *Client {
	c := &Client{
		http:        resty.New().SetBaseURL(baseURL).SetTimeout(30 * time.Second),
		consumerKey: consumerKey,
		secret:      secret,
		shortcode:   shortcode,
		passkey:     passkey,
		callbackURL: callbackURL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// Token returns a cached OAuth access token, fetching a fresh one when the
// cached token is within a minute of expiry.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.accessToken, nil
	}

	var tr tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.consumerKey, c.secret).
		SetQueryParam("grant_type", "client_credentials").
		SetResult(&tr).
		Get("/oauth/v1/generate")
	if err != nil {
		return "", fmt.Errorf("mpesa token request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("mpesa token request: status %d", resp.StatusCode())
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("mpesa token request: empty access token")
	}

	ttl := time.Hour
	if n, err := strconv.Atoi(tr.ExpiresIn); err == nil && n > 0 {
		ttl = time.Duration(n) * time.Second
	}

	c.accessToken = tr.AccessToken
	c.tokenExpiry = c.now().Add(ttl)
	return c.accessToken, nil
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResult is the synchronous acknowledgement of an STK push. The
// actual payment outcome arrives later on the callback URL.
type STKPushResult struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`

	// Populated on error responses.
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// Password builds the Lipa Na M-Pesa password for the given timestamp:
// base64(shortcode + passkey + timestamp).
func (c *Client) Password(ts string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.shortcode + c.passkey + ts))
}

// Timestamp formats t the way Daraja expects: YYYYMMDDHHMMSS.
func Timestamp(t time.Time) string {
	return t.Format("20060102150405")
}

// STKPush asks the gateway to prompt phone for amount. Amount is truncated
// to whole shillings, which is all the gateway accepts.
func (c *Client) STKPush(ctx context.Context, phone string, amount decimal.Decimal, accountRef, desc string) (*STKPushResult, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	ts := Timestamp(c.now())
	req := stkPushRequest{
		BusinessShortCode: c.shortcode,
		Password:          c.Password(ts),
		Timestamp:         ts,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount.Truncate(0).String(),
		PartyA:            phone,
		PartyB:            c.shortcode,
		PhoneNumber:       phone,
		CallBackURL:       c.callbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   desc,
	}

	var result STKPushResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(req).
		SetResult(&result).
		SetError(&result).
		Post("/mpesa/stkpush/v1/processrequest")
	if err != nil {
		return nil, fmt.Errorf("mpesa stk push: %w", err)
	}
	if resp.IsError() {
		if result.ErrorMessage != "" {
			return nil, fmt.Errorf("mpesa stk push: %s", result.ErrorMessage)
		}
		return nil, fmt.Errorf("mpesa stk push: status %d", resp.StatusCode())
	}
	if result.ResponseCode != "0" {
		return nil, fmt.Errorf("mpesa stk push rejected: %s", result.ResponseDescription)
	}
	return &result, nil
}
