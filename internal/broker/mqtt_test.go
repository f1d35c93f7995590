package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisfind/internal/config"
	"wisfind/internal/constants"
	"wisfind/internal/logger"
	perrors "wisfind/pkg/errors"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

// fakeClient stands in for the paho client; afterSubscribe lets a test drive
// message delivery or connection loss once the session is up.
type fakeClient struct {
	opts           *mqtt.ClientOptions
	connectErr     error
	subscribeErr   error
	afterSubscribe func(fc *fakeClient)
	connected      bool
}

func (c *fakeClient) Connect() mqtt.Token {
	if c.connectErr != nil {
		return &fakeToken{err: c.connectErr}
	}
	c.connected = true
	return &fakeToken{}
}

func (c *fakeClient) Disconnect(quiesce uint) { c.connected = false }

func (c *fakeClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	if c.subscribeErr != nil {
		return &fakeToken{err: c.subscribeErr}
	}
	if c.afterSubscribe != nil {
		go c.afterSubscribe(c)
	}
	return &fakeToken{}
}

func (c *fakeClient) IsConnected() bool      { return c.connected }
func (c *fakeClient) IsConnectionOpen() bool { return c.connected }
func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	return &fakeToken{}
}
func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	return &fakeToken{}
}
func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token             { return &fakeToken{} }
func (c *fakeClient) AddRoute(topic string, callback mqtt.MessageHandler) {}
func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

func testBrokerConfig(attempts int, delay time.Duration) config.BrokerConfig {
	return config.BrokerConfig{
		Endpoint:          "broker.test.example",
		Topics:            []string{constants.TopicAllCoreData},
		User:              constants.WIS2CoreUser,
		Password:          constants.WIS2CorePass,
		Transport:         constants.TransportTCP,
		ClientID:          "wisfind-test",
		ReconnectDelay:    delay,
		ReconnectAttempts: attempts,
	}
}

func TestBrokerURL(t *testing.T) {
	c := NewMQTTConsumer(testBrokerConfig(0, time.Second), logger.NopLogger())
	assert.Equal(t, "tls://broker.test.example:8883", c.brokerURL())

	cfg := testBrokerConfig(0, time.Second)
	cfg.Transport = constants.TransportWebsocket
	c = NewMQTTConsumer(cfg, logger.NopLogger())
	assert.Equal(t, "wss://broker.test.example:443/mqtt", c.brokerURL())

	cfg.Port = 8080
	c = NewMQTTConsumer(cfg, logger.NopLogger())
	assert.Equal(t, "wss://broker.test.example:8080/mqtt", c.brokerURL())
}

func TestConsumeReconnectsWithinBudget(t *testing.T) {
	delay := 5 * time.Millisecond
	c := NewMQTTConsumer(testBrokerConfig(2, delay), logger.NopLogger())

	sessions := 0
	c.newClient = func(opts *mqtt.ClientOptions) mqtt.Client {
		sessions++
		fc := &fakeClient{opts: opts}
		if sessions <= 2 {
			fc.connectErr = errors.New("connection refused")
			return fc
		}
		fc.afterSubscribe = func(fc *fakeClient) {
			opts.DefaultPublishHandler(fc, &fakeMessage{topic: "cache/a/wis2/x", payload: []byte(`{"id":"m-1"}`)})
		}
		return fc
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received [][]byte
	start := time.Now()
	err := c.Consume(ctx, func(ctx context.Context, topic string, payload []byte) error {
		received = append(received, payload)
		cancel()
		return nil
	})
	elapsed := time.Since(start)

	// Two failures then success: messages flow after exactly two backoff
	// waits, and no connection error is raised.
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, sessions)
	assert.Len(t, received, 1)
	assert.GreaterOrEqual(t, elapsed, 2*delay)
}

func TestConsumeZeroAttemptsFailsImmediately(t *testing.T) {
	c := NewMQTTConsumer(testBrokerConfig(0, time.Second), logger.NopLogger())

	sessions := 0
	c.newClient = func(opts *mqtt.ClientOptions) mqtt.Client {
		sessions++
		return &fakeClient{opts: opts, connectErr: errors.New("connection refused")}
	}

	start := time.Now()
	err := c.Consume(context.Background(), func(context.Context, string, []byte) error {
		t.Fatal("no message should be delivered")
		return nil
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, perrors.CodeConnection, perrors.CodeOf(err))
	assert.Contains(t, err.Error(), "broker.test.example")
	assert.Equal(t, 1, sessions)
	// No backoff wait was performed.
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestConsumeExhaustedBudgetReportsEndpointAndAttempts(t *testing.T) {
	c := NewMQTTConsumer(testBrokerConfig(2, time.Millisecond), logger.NopLogger())

	sessions := 0
	c.newClient = func(opts *mqtt.ClientOptions) mqtt.Client {
		sessions++
		return &fakeClient{opts: opts, connectErr: errors.New("connection refused")}
	}

	err := c.Consume(context.Background(), func(context.Context, string, []byte) error {
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, perrors.CodeConnection, perrors.CodeOf(err))
	assert.Equal(t, 3, sessions)

	var coded *perrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, "broker.test.example", coded.Details["endpoint"])
	assert.Equal(t, 2, coded.Details["attempts"])
}

func TestConsumeSubscribeFailureIsRetriedLikeDeliveryFailure(t *testing.T) {
	c := NewMQTTConsumer(testBrokerConfig(0, time.Second), logger.NopLogger())

	c.newClient = func(opts *mqtt.ClientOptions) mqtt.Client {
		return &fakeClient{opts: opts, subscribeErr: errors.New("not authorized")}
	}

	err := c.Consume(context.Background(), func(context.Context, string, []byte) error {
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, perrors.CodeConnection, perrors.CodeOf(err))
}

func TestConsumeConnectionLossResubscribes(t *testing.T) {
	delay := time.Millisecond
	c := NewMQTTConsumer(testBrokerConfig(1, delay), logger.NopLogger())

	sessions := 0
	c.newClient = func(opts *mqtt.ClientOptions) mqtt.Client {
		sessions++
		fc := &fakeClient{opts: opts}
		if sessions == 1 {
			fc.afterSubscribe = func(fc *fakeClient) {
				opts.OnConnectionLost(fc, errors.New("EOF"))
			}
			return fc
		}
		fc.afterSubscribe = func(fc *fakeClient) {
			opts.DefaultPublishHandler(fc, &fakeMessage{topic: "cache/a/wis2/x", payload: []byte(`{}`)})
		}
		return fc
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	delivered := 0
	err := c.Consume(ctx, func(context.Context, string, []byte) error {
		delivered++
		cancel()
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, sessions)
	assert.Equal(t, 1, delivered)
}

func TestConsumeHandlerErrorIsFatalAndNotRetried(t *testing.T) {
	c := NewMQTTConsumer(testBrokerConfig(5, time.Millisecond), logger.NopLogger())

	sessions := 0
	c.newClient = func(opts *mqtt.ClientOptions) mqtt.Client {
		sessions++
		fc := &fakeClient{opts: opts}
		fc.afterSubscribe = func(fc *fakeClient) {
			opts.DefaultPublishHandler(fc, &fakeMessage{topic: "cache/a/wis2/x", payload: []byte(`{}`)})
		}
		return fc
	}

	actionErr := errors.New("emit failed")
	err := c.Consume(context.Background(), func(context.Context, string, []byte) error {
		return actionErr
	})

	require.ErrorIs(t, err, actionErr)
	assert.NotEqual(t, perrors.CodeConnection, perrors.CodeOf(err))
	assert.Equal(t, 1, sessions)
}
