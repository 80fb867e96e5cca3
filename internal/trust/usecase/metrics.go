package usecase

import (
	"context"
	"encoding/json"
	"time"

	channelDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/channel/domain"
	"github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/metrics"
	trustDomain "github.com/jun-omise/Omise-MCP-Alpha-sub001/internal/trust/domain"
)

const metricsDomain = "trust"

// metricsService decorates a Service with operation count and duration
// instrumentation. The wrapped service stays unaware of telemetry.
type metricsService struct {
	next    Service
	metrics metrics.OperationMetrics
}

// NewMetricsService wraps a Service with OpenTelemetry instrumentation.
func NewMetricsService(next Service, operationMetrics metrics.OperationMetrics) Service {
	return &metricsService{
		next:    next,
		metrics: operationMetrics,
	}
}

func (m *metricsService) record(ctx context.Context, operation string, start time.Time, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	m.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

func (m *metricsService) RegisterAgent(
	ctx context.Context,
	info *trustDomain.AgentInfo,
) *trustDomain.RegisterAgentResult {
	start := time.Now()
	result := m.next.RegisterAgent(ctx, info)
	m.record(ctx, "register_agent", start, result.Success)
	return result
}

func (m *metricsService) AuthenticateAgent(
	ctx context.Context,
	input *AuthenticateInput,
) *trustDomain.AuthenticationResult {
	start := time.Now()
	result := m.next.AuthenticateAgent(ctx, input)
	m.record(ctx, "authenticate_agent", start, result.Success)
	return result
}

func (m *metricsService) EstablishSecureChannel(
	ctx context.Context,
	targetAgentID string,
	level channelDomain.SecurityLevel,
) *trustDomain.ChannelResult {
	start := time.Now()
	result := m.next.EstablishSecureChannel(ctx, targetAgentID, level)
	m.record(ctx, "establish_secure_channel", start, result.Success)
	return result
}

func (m *metricsService) SendSecureMessage(
	ctx context.Context,
	targetAgentID string,
	messageType channelDomain.MessageType,
	payload json.RawMessage,
	opts channelDomain.SendOptions,
) *trustDomain.MessageResult {
	start := time.Now()
	result := m.next.SendSecureMessage(ctx, targetAgentID, messageType, payload, opts)
	m.record(ctx, "send_secure_message", start, result.Success)
	return result
}

func (m *metricsService) PerformHealthCheck(
	ctx context.Context,
	targetAgentID string,
) *trustDomain.HealthResult {
	start := time.Now()
	result := m.next.PerformHealthCheck(ctx, targetAgentID)
	m.record(ctx, "perform_health_check", start, result.State != trustDomain.HealthStateUnhealthy)
	return result
}

func (m *metricsService) SecurityMetrics(ctx context.Context) *trustDomain.SecurityMetrics {
	return m.next.SecurityMetrics(ctx)
}
