package constants

import "time"

// Well-known WIS2 connection defaults. Core data is readable by 'everyone'.
const (
	DefaultBroker   = "globalbroker.meteo.fr"
	WIS2CoreUser    = "everyone"
	WIS2CorePass    = "everyone"
	DefaultClientID = "wisfind"
)

// Topic subscribing to all core (free) data from any centre.
// Topic hierarchy: https://codes.wmo.int/wis/topic-hierarchy
const TopicAllCoreData = "cache/a/wis2/+/data/core/#"

const (
	TransportTCP       = "tcp"
	TransportWebsocket = "websocket"
)

// Transport-dependent default ports, per the WIS2 guide.
const (
	DefaultPortTCP       = 8883
	DefaultPortWebsocket = 443
)

const (
	DefaultReconnectDelay    = 3500 * time.Millisecond
	DefaultReconnectAttempts = -1 // unlimited
)

const (
	ConnectTimeout    = 30 * time.Second
	DisconnectQuiesce = 250 * time.Millisecond
)

// Inbound payloads buffered between the broker callback and the driver.
const InboundBuffer = 256

// Warn-level skip logging is throttled so a stream of garbage cannot flood
// stderr.
const (
	SkipLogRate  = 5 // per second
	SkipLogBurst = 10
)

const ShutdownTimeout = 5 * time.Second
