// Package okx submits orders to OKX's TradingView signal-trigger
// endpoint. The venue does not echo a fill price, so orders come back
// FILLED with a nil price and the executor values the fill at its own
// indicator price.
package okx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tradeagent/exchange"
	"tradeagent/internal/id"
)

const (
	// PaperURL triggers signals against OKX's demo environment.
	PaperURL = "https://www.okx.com/pap/algo/signal/trigger"
	// LiveURL triggers signals against the live environment.
	LiveURL = "https://www.okx.com/algo/signal/trigger"

	defaultTimeout = 10 * time.Second
)

// Config is supplied explicitly at construction; the client never reads
// process environment.
type Config struct {
	Network     string // "paper" or "live"
	SignalToken string
	Proxy       string // optional proxy URL
	Timeout     time.Duration
}

type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client

	mu        sync.Mutex
	connected bool
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.SignalToken == "" {
		return nil, fmt.Errorf("okx: signal token is required")
	}

	endpoint := PaperURL
	if cfg.Network == "live" {
		endpoint = LiveURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("okx: parse proxy url: %w", err)
		}
		httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	return &Client{
		endpoint:   endpoint,
		token:      cfg.SignalToken,
		httpClient: httpClient,
	}, nil
}

func (c *Client) Name() string { return "okx" }

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Connect marks the client ready. The signal endpoint is sessionless, so
// there is no handshake to perform.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	return nil
}

// signalPayload is the wire format of the signal-trigger endpoint.
type signalPayload struct {
	Action           string `json:"action"`
	Instrument       string `json:"instrument"`
	SignalToken      string `json:"signalToken"`
	Timestamp        string `json:"timestamp"`
	MaxLag           string `json:"maxLag"`
	OrderType        string `json:"orderType"`
	OrderPriceOffset string `json:"orderPriceOffset"`
	InvestmentType   string `json:"investmentType"`
	Amount           string `json:"amount"`
}

// signalAction maps order side and trade type onto the endpoint's four
// actions. A short opens with a sell and closes with a buy.
func signalAction(side exchange.Side, tt exchange.TradeType) (string, error) {
	switch {
	case side == exchange.Buy && tt == exchange.Long:
		return "ENTER_LONG", nil
	case side == exchange.Sell && tt == exchange.Long:
		return "EXIT_LONG", nil
	case side == exchange.Sell && tt == exchange.Short:
		return "ENTER_SHORT", nil
	case side == exchange.Buy && tt == exchange.Short:
		return "EXIT_SHORT", nil
	}
	return "", fmt.Errorf("okx: no signal action for side %q trade type %q", side, tt)
}

func (c *Client) buildPayload(symbol, action string) signalPayload {
	return signalPayload{
		Action:           action,
		Instrument:       symbol + "T-SWAP",
		SignalToken:      c.token,
		Timestamp:        time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		MaxLag:           "300",
		OrderType:        "market",
		OrderPriceOffset: "",
		InvestmentType:   "percentage_balance",
		Amount:           "100",
	}
}

// PlaceOrder triggers the signal and treats any 2xx response as a fill.
// Transport errors and non-2xx statuses surface as errors so the caller
// commits nothing locally.
func (c *Client) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.Order, error) {
	action, err := signalAction(req.Side, req.TradeType)
	if err != nil {
		return exchange.Order{}, err
	}

	payload := c.buildPayload(req.Symbol, action)
	body, err := json.Marshal(payload)
	if err != nil {
		return exchange.Order{}, fmt.Errorf("okx: marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return exchange.Order{}, fmt.Errorf("okx: build request: %w", err)
	}
	setBrowserHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return exchange.Order{}, fmt.Errorf("okx: send signal: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("action", action).
			Str("instrument", payload.Instrument).Msg("okx signal rejected")
		return exchange.Order{}, fmt.Errorf("okx: signal trigger returned status %d: %s", resp.StatusCode, respBody)
	}

	log.Info().Str("action", action).Str("instrument", payload.Instrument).
		Msg("okx signal accepted")

	return exchange.Order{
		OrderID: id.New(),
		Symbol:  req.Symbol,
		Side:    req.Side,
		Qty:     req.Quantity,
		Status:  exchange.StatusFilled,
	}, nil
}

// setBrowserHeaders mimics a browser request; the signal endpoint
// rejects bare clients with 403.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Origin", "https://www.okx.com")
	req.Header.Set("Referer", "https://www.okx.com/")
}
