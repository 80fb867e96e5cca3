// Package transport delivers envelopes to peer agents over HTTP. It handles
// delivery only; retries and circuit breaking belong to callers.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	channelDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/domain"
	apperrors "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/errors"
)

// Sender delivers a signed envelope to the target agent and returns its
// response. Implementations must honor the context deadline.
type Sender interface {
	Send(
		ctx context.Context,
		baseURL string,
		bearerToken string,
		tlsConfig *tls.Config,
		envelope *channelDomain.Envelope,
	) (*channelDomain.Response, error)
}

// httpSender implements Sender over net/http.
type httpSender struct {
	client    *http.Client
	tlsClient func(*tls.Config) *http.Client
	agentID   string
}

// NewHTTPSender creates a Sender posting envelopes to the target's
// /a2a/message endpoint. The timeout bounds requests without an explicit
// context deadline.
func NewHTTPSender(agentID string, timeout time.Duration) Sender {
	return &httpSender{
		client:  &http.Client{Timeout: timeout},
		agentID: agentID,
		tlsClient: func(cfg *tls.Config) *http.Client {
			return &http.Client{
				Timeout:   timeout,
				Transport: &http.Transport{TLSClientConfig: cfg},
			}
		},
	}
}

// Send posts the envelope. A non-nil tlsConfig switches the request to a
// mutually authenticated client.
func (s *httpSender) Send(
	ctx context.Context,
	baseURL string,
	bearerToken string,
	tlsConfig *tls.Config,
	envelope *channelDomain.Envelope,
) (*channelDomain.Response, error) {
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode envelope")
	}

	url := baseURL + "/a2a/message"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	req.Header.Set("X-Agent-ID", s.agentID)
	req.Header.Set("X-Message-ID", envelope.ID)
	req.Header.Set("X-Nonce", envelope.Nonce)

	client := s.client
	if tlsConfig != nil {
		client = s.tlsClient(tlsConfig)
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Wrap(apperrors.ErrTimeout, "message delivery timed out")
		}
		return nil, apperrors.Wrap(apperrors.ErrTransport, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.Wrap(
			apperrors.ErrTransport,
			fmt.Sprintf("target returned status %d", resp.StatusCode),
		)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTransport, "failed to read response body")
	}

	var response channelDomain.Response
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTransport, "failed to decode response body")
	}
	return &response, nil
}
