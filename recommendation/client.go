package recommendation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
)

var ErrModelUnavailable = errors.New("recommendation model unavailable")

const serviceTokenTTL = time.Hour

type Client struct {
	baseURL string
	http    *http.Client
	token   func(subject, email string) (string, error)
}

// NewClient reads ML_API_URL (default http://localhost:8020) and ML_TIMEOUT_MS.
func NewClient() *Client {
	baseURL := strings.TrimSpace(os.Getenv("ML_API_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:8020"
	}
	return NewClientWithURL(baseURL, config.MLTimeout())
}

func NewClientWithURL(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		token: func(subject, email string) (string, error) {
			return utils.ServiceToken(subject, email, serviceTokenTTL)
		},
	}
}

// Predict posts the features to /ml/predict?tenant=<domain> with a short-lived bearer token.
func (c *Client) Predict(ctx context.Context, tenantDomain string, subject string, email string, req PredictRequest) (*Prediction, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("tenant", tenantDomain)
	endpoint := c.baseURL + "/ml/predict?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	token, err := c.token(subject, email)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ml api error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var prediction Prediction
	if err := json.Unmarshal(raw, &prediction); err != nil {
		return nil, err
	}
	if !prediction.ModelAvailable {
		return &prediction, ErrModelUnavailable
	}
	return &prediction, nil
}
