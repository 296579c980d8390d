package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildMessage(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	msg, err := buildMessage(Event{
		Action:     ActionPredict,
		StockCode:  "KR7005930003",
		ModelType:  "lstm",
		Success:    true,
		DurationMs: 42,
		Timestamp:  ts,
	})
	require.NoError(t, err)

	assert.Equal(t, []byte(ActionPredict), msg.Key)
	assert.Equal(t, ts, msg.Time)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "predict", decoded["action"])
	assert.Equal(t, "KR7005930003", decoded["stock_code"])
	assert.NotContains(t, decoded, "error")
}

func TestBuildMessage_StampsTime(t *testing.T) {
	msg, err := buildMessage(Event{Action: ActionTrain})
	require.NoError(t, err)
	assert.False(t, msg.Time.IsZero())
}

func TestNewPublisher_DisabledIsNop(t *testing.T) {
	p := NewPublisher(KafkaConfig{Enabled: false, Brokers: []string{"kafka:9092"}}, zap.NewNop())
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), Event{Action: ActionTrain}))
	assert.NoError(t, p.Close())

	p = NewPublisher(KafkaConfig{Enabled: true}, zap.NewNop())
	assert.IsType(t, NopPublisher{}, p)
}

func TestNewPublisher_Enabled(t *testing.T) {
	p := NewPublisher(KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "ml-actions"}, zap.NewNop())
	kp, ok := p.(*KafkaPublisher)
	require.True(t, ok)
	assert.Equal(t, "ml-actions", kp.writer.Topic)
}
