package cbr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
)

// BankMargin is added on top of the key rate, in percentage points
const BankMargin = 5.0

// lookback is how far back the key rate history is requested
const lookback = 30 * 24 * time.Hour

const keyRateEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
  <soap12:Body>
    <KeyRate xmlns="http://web.cbr.ru/">
      <fromDate>%s</fromDate>
      <ToDate>%s</ToDate>
    </KeyRate>
  </soap12:Body>
</soap12:Envelope>`

// KeyRate is a reference rate published by the Central Bank plus the bank margin.
// It is informational: program rates are fixed by the catalog.
type KeyRate struct {
	Rate          float64   `json:"key_rate"`
	CentralBank   float64   `json:"central_bank_rate"`
	EffectiveDate time.Time `json:"effective_date"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// CBRClient talks to the DailyInfo web service of the Central Bank of Russia
type CBRClient struct {
	url    string
	client *http.Client
	log    *logrus.Logger
	now    func() time.Time
}

// NewCBRClient initializes a new CBR client
func NewCBRClient(url string, log *logrus.Logger) *CBRClient {
	return &CBRClient{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
		now:    time.Now,
	}
}

func (c *CBRClient) post(ctx context.Context, envelope string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debugf("CBR XML response: %s", body)
	return body, nil
}

// latestKeyRate returns the newest KR row of a KeyRate response.
// Rows come newest first; DT is optional.
func latestKeyRate(body []byte) (rate float64, effective time.Time, err error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to parse XML: %w", err)
	}

	row := doc.FindElement("//diffgram/KeyRate/KR")
	if row == nil {
		return 0, time.Time{}, fmt.Errorf("no key rate data found in XML")
	}
	rateEl := row.SelectElement("Rate")
	if rateEl == nil {
		return 0, time.Time{}, fmt.Errorf("rate element not found in XML")
	}
	rate, err = strconv.ParseFloat(strings.TrimSpace(rateEl.Text()), 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to parse rate: %w", err)
	}
	if dt := row.SelectElement("DT"); dt != nil {
		effective, err = time.Parse(time.RFC3339, strings.TrimSpace(dt.Text()))
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("failed to parse rate date: %w", err)
		}
	}
	return rate, effective, nil
}

// GetKeyRate retrieves the latest key rate and adds the bank margin
func (c *CBRClient) GetKeyRate(ctx context.Context) (KeyRate, error) {
	now := c.now()
	envelope := fmt.Sprintf(keyRateEnvelope, now.Add(-lookback).Format("2006-01-02"), now.Format("2006-01-02"))

	body, err := c.post(ctx, envelope)
	if err != nil {
		return KeyRate{}, err
	}
	cbRate, effective, err := latestKeyRate(body)
	if err != nil {
		return KeyRate{}, err
	}

	kr := KeyRate{
		Rate:          cbRate + BankMargin,
		CentralBank:   cbRate,
		EffectiveDate: effective,
		FetchedAt:     now,
	}
	c.log.WithFields(logrus.Fields{
		"central_bank": cbRate,
		"margin":       BankMargin,
		"effective":    effective.Format("2006-01-02"),
	}).Infof("Retrieved key rate: %.2f%%", kr.Rate)
	return kr, nil
}

// KeyRateCache keeps the last fetched key rate for readers
type KeyRateCache struct {
	client *CBRClient
	mu     sync.RWMutex
	last   KeyRate
	ok     bool
}

// NewKeyRateCache wraps client
func NewKeyRateCache(client *CBRClient) *KeyRateCache {
	return &KeyRateCache{client: client}
}

// Refresh fetches a new rate; on failure the previous value is kept
func (k *KeyRateCache) Refresh(ctx context.Context) error {
	kr, err := k.client.GetKeyRate(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh key rate: %w", err)
	}
	k.mu.Lock()
	k.last, k.ok = kr, true
	k.mu.Unlock()
	return nil
}

// Get returns the cached rate and whether one has been fetched yet
func (k *KeyRateCache) Get() (KeyRate, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.last, k.ok
}
