// Package events declares the lifecycle events published on the eventbus.
// Start and finish events are published on the same context, so observers
// can hang spans or timers off it.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is published when the server accepts a request.
type HTTPStart struct {
	Request *http.Request
}

type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}

// Transports a GraphQL operation can arrive on.
const (
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"
)

// GraphQLStart is published before an operation executes. For
// subscriptions the pair brackets the whole stream.
type GraphQLStart struct {
	Transport     string
	Query         string
	OperationName string
	OperationType string
}

type GraphQLFinish struct {
	Transport     string
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// FetchStart is published before an upstream request is sent. ID pairs it
// with its FetchFinish.
type FetchStart struct {
	ID     string
	Method string
	URL    string
}

// FetchFinish carries the upstream status, or Err when no response arrived.
type FetchFinish struct {
	ID       string
	Method   string
	URL      string
	Status   int
	Err      error
	Duration time.Duration
}

// SubscriptionStart is published when an iterator opens on a topic.
type SubscriptionStart struct {
	Topic string
}

// SubscriptionEvent is published per payload delivered on a topic.
// Subscribers is zero when the bus cannot tell.
type SubscriptionEvent struct {
	Topic       string
	Subscribers int
}

type SubscriptionEnd struct {
	Topic    string
	Duration time.Duration
}
