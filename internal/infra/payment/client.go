package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rental-billing/internal/domain"
	"rental-billing/internal/domain/model"
	"rental-billing/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ApprovalClient = (*InicisClient)(nil)

// InicisClient implements the server-to-server approval leg using direct HTTP
// calls. Both requests are form-encoded POSTs signed with a fresh timestamp.
type InicisClient struct {
	mid     string
	signKey string
	client  *http.Client
	now     func() time.Time
}

// NewInicisClient creates the approval client. timeout bounds both the
// approval and the net-cancel call.
func NewInicisClient(mid, signKey string, timeout time.Duration) *InicisClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &InicisClient{
		mid:     mid,
		signKey: signKey,
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

func (c *InicisClient) Name() string { return "inicis" }

func (c *InicisClient) Endpoints(idc string) (adapter.GatewayEndpoints, bool) {
	ep, ok := endpointTable[strings.ToLower(strings.TrimSpace(idc))]
	return ep, ok
}

func (c *InicisClient) signedForm(authToken string) url.Values {
	ts := c.now().UnixMilli()
	form := url.Values{}
	form.Set("mid", c.mid)
	form.Set("authToken", authToken)
	form.Set("timestamp", strconv.FormatInt(ts, 10))
	form.Set("signature", ApprovalSignature(authToken, ts))
	form.Set("verification", ApprovalVerification(authToken, c.signKey, ts))
	form.Set("charset", "UTF-8")
	form.Set("format", "JSON")
	return form
}

// Approve issues the signed final-approval request and parses the gateway's
// JSON result. A transport failure or non-2xx status is reported as an error;
// a parsed result with a non-success code is returned to the caller to decide.
func (c *InicisClient) Approve(ctx context.Context, authURL, authToken string) (*model.ApprovalResult, error) {
	body, err := c.postForm(ctx, authURL, c.signedForm(authToken))
	if err != nil {
		return nil, fmt.Errorf("approval call: %w", err)
	}
	var res model.ApprovalResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("approval response: %w, body: %s", err, string(body))
	}
	return &res, nil
}

// NetCancel issues the compensating cancellation with the same auth token.
func (c *InicisClient) NetCancel(ctx context.Context, netCancelURL, authToken string) error {
	body, err := c.postForm(ctx, netCancelURL, c.signedForm(authToken))
	if err != nil {
		return fmt.Errorf("net-cancel call: %w", err)
	}
	var res model.ApprovalResult
	if err := json.Unmarshal(body, &res); err != nil {
		return fmt.Errorf("net-cancel response: %w, body: %s", err, string(body))
	}
	if !res.Success() {
		return fmt.Errorf("%w: net-cancel code %s msg %s", domain.ErrGatewayRejected, res.ResultCode, res.ResultMsg)
	}
	return nil
}

func (c *InicisClient) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gateway status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
