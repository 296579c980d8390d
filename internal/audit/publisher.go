// Package audit publishes the outcome of ML actions to Kafka.
package audit

import (
	"context"
	"time"
)

// Action names.
const (
	ActionGenerateCSV = "generate_csv"
	ActionTrain       = "train"
	ActionPredict     = "predict"
)

// Event is one completed ML action.
type Event struct {
	Action     string    `json:"action"`
	StockName  string    `json:"stock_name,omitempty"`
	StockCode  string    `json:"stock_code,omitempty"`
	ModelType  string    `json:"model_type,omitempty"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	TraceID    string    `json:"trace_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher delivers audit events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. It is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
