// Package domain defines the secure channel's domain models: sessions,
// message envelopes, and the closed set of message types agents exchange.
package domain

// SecurityLevel selects the transport guarantees a session is opened with.
type SecurityLevel string

const (
	// SecurityLevelStandard authenticates with a bearer token only.
	SecurityLevelStandard SecurityLevel = "standard"

	// SecurityLevelHigh additionally requires validated mTLS material for
	// both sides before the session is recorded.
	SecurityLevelHigh SecurityLevel = "high"
)

// MessageType identifies the handler an inbound envelope is dispatched to.
// The set is closed: unknown types are rejected, never routed.
type MessageType string

const (
	MessageTypePaymentRequest      MessageType = "payment_request"
	MessageTypePaymentResponse     MessageType = "payment_response"
	MessageTypeCustomerQuery       MessageType = "customer_query"
	MessageTypeWebhookNotification MessageType = "webhook_notification"
	MessageTypeHealthCheck         MessageType = "health_check"
)

// KnownMessageType reports whether the type is in the closed handler set.
func KnownMessageType(t MessageType) bool {
	switch t {
	case MessageTypePaymentRequest,
		MessageTypePaymentResponse,
		MessageTypeCustomerQuery,
		MessageTypeWebhookNotification,
		MessageTypeHealthCheck:
		return true
	}
	return false
}

// Priority orders outbound messages for the transport. It is carried as a
// hint; the default transport does not reorder.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)
