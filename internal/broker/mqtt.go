package broker

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"wisfind/internal/config"
	"wisfind/internal/constants"
	"wisfind/internal/logger"
	perrors "wisfind/pkg/errors"
	"wisfind/pkg/metrics"
	"wisfind/pkg/retry"
)

// transportError marks a failure the reconnect loop may retry; everything
// else stops the loop immediately.
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return e.err.Error()
}

func (e *transportError) Unwrap() error {
	return e.err
}

type inboundMessage struct {
	topic   string
	payload []byte
}

// MQTTConsumer owns the broker session: it dials, subscribes every configured
// topic filter at QoS 1, and delivers payloads to the handler one at a time.
// On a transport failure the subscriptions are reissued from scratch after a
// fixed delay while the session-scoped attempt budget lasts.
type MQTTConsumer struct {
	cfg    config.BrokerConfig
	logger logger.Logger

	// newClient is swapped out by tests.
	newClient func(*mqtt.ClientOptions) mqtt.Client

	mu     sync.Mutex
	client mqtt.Client
}

func NewMQTTConsumer(cfg config.BrokerConfig, log logger.Logger) *MQTTConsumer {
	return &MQTTConsumer{
		cfg:       cfg,
		logger:    log,
		newClient: mqtt.NewClient,
	}
}

// brokerURL picks the scheme and default port from the transport mode. Both
// transports always negotiate TLS with the system trust roots.
func (c *MQTTConsumer) brokerURL() string {
	port := c.cfg.Port
	if c.cfg.Transport == constants.TransportWebsocket {
		if port == 0 {
			port = constants.DefaultPortWebsocket
		}
		return fmt.Sprintf("wss://%s:%d/mqtt", c.cfg.Endpoint, port)
	}
	if port == 0 {
		port = constants.DefaultPortTCP
	}
	return fmt.Sprintf("tls://%s:%d", c.cfg.Endpoint, port)
}

func (c *MQTTConsumer) Consume(ctx context.Context, handler HandlerFunc) error {
	c.logger.Infow("Starting MQTT connection",
		"endpoint", c.cfg.Endpoint,
		"url", c.brokerURL(),
		"topics", c.cfg.Topics,
	)

	policy := retry.Policy{
		Interval:    c.cfg.ReconnectDelay,
		MaxAttempts: c.cfg.ReconnectAttempts,
	}

	err := retry.Run(ctx, policy, func() error {
		return c.runSession(ctx, handler)
	}, func(sessionErr error, remaining int) {
		metrics.ReconnectsTotal.Inc()
		c.logger.Warnw("Lost connection; reconnecting",
			"endpoint", c.cfg.Endpoint,
			"delay", c.cfg.ReconnectDelay,
			"attempts_remaining", remaining,
			"error", sessionErr,
		)
	})

	if ctx.Err() != nil {
		return ctx.Err()
	}

	var te *transportError
	if errors.As(err, &te) {
		// Budget exhausted.
		return perrors.Connection(c.cfg.Endpoint, c.cfg.ReconnectAttempts, te.err)
	}
	return err
}

// runSession establishes one session and pumps messages until the connection
// drops, the handler fails, or ctx is canceled. Subscribe failures are
// treated identically to delivery failures for retry purposes.
func (c *MQTTConsumer) runSession(ctx context.Context, handler HandlerFunc) error {
	inbound := make(chan inboundMessage, constants.InboundBuffer)
	lost := make(chan error, 1)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.brokerURL())
	opts.SetClientID(c.cfg.ClientID)
	opts.SetUsername(c.cfg.User)
	opts.SetPassword(c.cfg.Password)
	opts.SetTLSConfig(&tls.Config{})
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetOrderMatters(true)
	opts.SetConnectTimeout(constants.ConnectTimeout)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		select {
		case lost <- err:
		default:
		}
	})
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, m mqtt.Message) {
		select {
		case inbound <- inboundMessage{topic: m.Topic(), payload: m.Payload()}:
		case <-ctx.Done():
		}
	})

	client := c.newClient(opts)

	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return &transportError{err: err}
	}

	c.setClient(client)
	metrics.BrokerConnected.Set(1)
	defer func() {
		metrics.BrokerConnected.Set(0)
		c.setClient(nil)
		client.Disconnect(uint(constants.DisconnectQuiesce.Milliseconds()))
	}()

	c.logger.Infow("Connected", "endpoint", c.cfg.Endpoint)

	// One subscribe request per session covers all configured topics, at
	// at-least-once delivery.
	filters := make(map[string]byte, len(c.cfg.Topics))
	for _, topic := range c.cfg.Topics {
		filters[topic] = 1
	}
	token = client.SubscribeMultiple(filters, nil)
	token.Wait()
	if err := token.Error(); err != nil {
		return &transportError{err: err}
	}

	for {
		select {
		case <-ctx.Done():
			return retry.Permanent(ctx.Err())
		case err := <-lost:
			return &transportError{err: err}
		case m := <-inbound:
			if err := handler(ctx, m.topic, m.payload); err != nil {
				return retry.Permanent(err)
			}
		}
	}
}

func (c *MQTTConsumer) setClient(client mqtt.Client) {
	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
}

// Close drops the live session, if any. Consume's context is the usual way
// to stop; Close covers teardown paths where the context is already gone.
func (c *MQTTConsumer) Close() error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(uint(constants.DisconnectQuiesce.Milliseconds()))
	}
	return nil
}
