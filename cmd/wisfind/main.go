package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wisfind/internal/config"
	"wisfind/internal/constants"
	"wisfind/internal/logger"
	"wisfind/pkg/logging"
)

var (
	configFile        string
	brokerEndpoint    string
	brokerPort        int
	topics            []string
	user              string
	password          string
	websocket         bool
	noValidate        bool
	reconnectDelay    time.Duration
	reconnectAttempts int
	metricsPort       int
	verbose           bool
	quiet             bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wisfind [flags] [CONSTRAINT ...] [ACTION]",
		Short: "Find data on WIS2 as it becomes available",
		Long: "wisfind subscribes to a WIS2 global broker, validates each notification\n" +
			"message against the WNM standard, evaluates it against the given\n" +
			"constraints and performs an action on every match.",
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE:         run,
	}

	fs := rootCmd.Flags()
	fs.StringVar(&configFile, "config", "", "Path to YAML config file (optional)")
	fs.StringVarP(&brokerEndpoint, "broker", "b", "", "WIS2 global broker or cache to connect to")
	fs.IntVar(&brokerPort, "port", 0, "Broker port (0 uses the transport default)")
	fs.StringArrayVarP(&topics, "topic", "t", nil, "WIS2 topic filter to subscribe to (repeatable)")
	fs.StringVarP(&user, "user", "u", "", "Username to connect with; the default reads free WIS2 data")
	fs.StringVarP(&password, "password", "P", "", "Password to connect with")
	fs.BoolVar(&websocket, "websocket", false, "Use MQTT over WebSocket instead of TCP")
	fs.BoolVar(&noValidate, "no-validate", false, "Permit messages that do not follow the WNM standard")
	fs.DurationVar(&reconnectDelay, "reconnect-delay", 0, "Wait between reconnect attempts")
	fs.IntVar(&reconnectAttempts, "reconnect-attempts", constants.DefaultReconnectAttempts, "Reconnect budget; negative means unlimited")
	fs.IntVar(&metricsPort, "metrics-port", 0, "Serve Prometheus metrics on this port (0 disables)")
	fs.BoolVar(&verbose, "verbose", false, "Print verbose log information to stderr")
	fs.BoolVar(&quiet, "quiet", false, "Only log errors to stderr")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	earlyLog := logging.NewEarlyLog()

	if quiet && verbose {
		return fmt.Errorf("cannot specify both --quiet and --verbose")
	}

	if configFile == "" {
		configFile = os.Getenv("WISFIND_CONFIG")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		earlyLog.Error("Failed to load config: %v", err)
		return err
	}
	applyFlagOverrides(cmd, cfg)

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	if quiet {
		level = "error"
	}

	log, err := logger.New(level)
	if err != nil {
		earlyLog.Error("Failed to init logger: %v", err)
		return err
	}
	defer log.Sync()

	// The expression is compiled before any connection is attempted, so a
	// typo never costs a broker session.
	predicate, actionFactory, err := parseExpression(args)
	if err != nil {
		log.Errorf("Invalid expression: %v", err)
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := NewApp(cfg, log, predicate, actionFactory(os.Stdout))
	if err := app.Initialize(); err != nil {
		log.Errorf("Failed to initialize: %v", err)
		return err
	}

	log.InfowCtx(ctx, "Starting wisfind",
		"endpoint", cfg.Broker.Endpoint,
		"strict", cfg.Validation.Strict,
	)

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.ErrorwCtx(ctx, "Stopped with error", "error", err)
		return err
	}

	// An interrupt is a clean exit.
	log.InfowCtx(ctx, "Shutdown complete")
	return nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()

	if fs.Changed("broker") {
		cfg.Broker.Endpoint = brokerEndpoint
	}
	if fs.Changed("port") {
		cfg.Broker.Port = brokerPort
	}
	if fs.Changed("topic") {
		cfg.Broker.Topics = topics
	}
	if fs.Changed("user") {
		cfg.Broker.User = user
	}
	if fs.Changed("password") {
		cfg.Broker.Password = password
	}
	if websocket {
		cfg.Broker.Transport = constants.TransportWebsocket
	}
	if noValidate {
		cfg.Validation.Strict = false
	}
	if fs.Changed("reconnect-delay") {
		cfg.Broker.ReconnectDelay = reconnectDelay
	}
	if fs.Changed("reconnect-attempts") {
		cfg.Broker.ReconnectAttempts = reconnectAttempts
	}
	if fs.Changed("metrics-port") {
		cfg.Metrics.Port = metricsPort
	}
}
