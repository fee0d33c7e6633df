package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aayush-1o/truck/internal/models"
)

const razorpayDefaultBaseURL = "https://api.razorpay.com"

// A key id the sample .env ships with; treated the same as no key at all.
const razorpayPlaceholderKeyID = "rzp_test_YOUR_KEY_ID"

type RazorpayConfig struct {
	KeyID     string
	KeySecret string

	// BaseURL overrides the production API host, used in tests.
	BaseURL string

	Client *http.Client
	Logger *slog.Logger
}

// RazorpayService creates provider orders and verifies payment signatures.
// Order creation is an outbound HTTP call bounded by the client timeout;
// signature verification is pure local computation.
type RazorpayService struct {
	keyID      string
	keySecret  string
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

func NewRazorpayService(cfg RazorpayConfig) (*RazorpayService, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	base := cfg.BaseURL
	if base == "" {
		base = razorpayDefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	s := &RazorpayService{
		keyID:      strings.TrimSpace(cfg.KeyID),
		keySecret:  strings.TrimSpace(cfg.KeySecret),
		baseURL:    u,
		httpClient: client,
		logger:     logger,
	}
	logger.Info("Razorpay gateway initialized", "configured", s.Configured())
	return s, nil
}

// Configured reports whether real API credentials are present.
func (s *RazorpayService) Configured() bool {
	return s.keyID != "" && s.keySecret != "" && s.keyID != razorpayPlaceholderKeyID
}

// KeyID returns the public key id the frontend checkout needs.
func (s *RazorpayService) KeyID() string {
	return s.keyID
}

// RazorpayError describes a non-2xx response from the provider API.
type RazorpayError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *RazorpayError) Error() string {
	return fmt.Sprintf("razorpay: %s: %s", e.Status, e.Body)
}

// CreateOrder requests an order reference from Razorpay for the given amount
// in paise. Fails closed: on any error no order reference is returned and
// nothing is persisted by this layer.
func (s *RazorpayService) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (string, error) {
	if !s.Configured() {
		return "", models.ErrGatewayNotConfigured
	}

	type orderReq struct {
		Amount   int64             `json:"amount"`
		Currency string            `json:"currency"`
		Receipt  string            `json:"receipt"`
		Notes    map[string]string `json:"notes,omitempty"`
	}
	type orderResp struct {
		ID string `json:"id"`
	}

	endpoint := *s.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/v1/orders")
	body, _ := json.Marshal(orderReq{Amount: amount, Currency: currency, Receipt: receipt, Notes: notes})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.keyID, s.keySecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("order request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("Razorpay order creation failed", "status", resp.Status)
		return "", &RazorpayError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(respBody)}
	}

	var parsed orderResp
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("order response missing id")
	}

	s.logger.Info("Razorpay order created", "order_id", parsed.ID, "amount", amount)
	return parsed.ID, nil
}

// VerifySignature checks a claimed checkout signature against
// HMAC-SHA256(secret, orderID + "|" + paymentID). The signed payload format
// is Razorpay's documented scheme and must not be extended. Comparison is
// constant time; an unconfigured secret never verifies.
func (s *RazorpayService) VerifySignature(orderID, paymentID, signature string) bool {
	if s.keySecret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(s.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := mac.Sum(nil)

	claimed, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, claimed)
}
