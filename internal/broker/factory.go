package broker

import (
	"fmt"

	"wisfind/internal/config"
	"wisfind/internal/constants"
	"wisfind/internal/logger"
)

func NewConsumer(cfg config.BrokerConfig, log logger.Logger) (Consumer, error) {
	switch cfg.Transport {
	case constants.TransportTCP, constants.TransportWebsocket:
		return NewMQTTConsumer(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown transport: %s", cfg.Transport)
	}
}
