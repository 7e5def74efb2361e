package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tcnet-monitor/internal/config"
	"tcnet-monitor/internal/metrics"
	"tcnet-monitor/internal/monitor"
	"tcnet-monitor/internal/tcnet"
	"tcnet-monitor/internal/tui"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

const (
	appName    = "tcnet-monitor"
	appVersion = "1.2.0"
	tuiLogFile = "tcnet-monitor.log"
)

var versionParts = [3]uint8{1, 2, 0}

type cli struct {
	Config   string           `help:"Path to the YAML configuration file" type:"path" env:"TCNET_MONITOR_CONFIG"`
	LogLevel string           `help:"Override logging.level (debug, info, warn, error)"`
	Headless bool             `help:"Run without the dashboard and log layer changes instead"`
	Version  kong.VersionFlag `help:"Show version and exit"`
}

func main() {
	var params cli
	kong.Parse(&params,
		kong.Name(appName),
		kong.Description("Monitors a TCNet network: nodes, layer status and track changes."),
		kong.Vars{"version": appVersion},
	)

	cfg, err := config.Load(params.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if params.LogLevel != "" {
		cfg.Logging.Level = params.LogLevel
		if err := cfg.Logging.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --log-level: %v\n", err)
			os.Exit(1)
		}
	}
	// the dashboard owns the terminal
	if !params.Headless && cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = tuiLogFile
	}

	logger := initLogger(cfg.Logging)
	if err := run(cfg, params.Headless, logger); err != nil {
		logger.Error("monitor failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, headless bool, logger *slog.Logger) error {
	sessionID := uuid.NewString()
	nodeID := cfg.Node.ID
	if nodeID == 0 {
		nodeID = randomNodeID()
	}

	logger.Info("service starting",
		slog.String("service", appName),
		slog.String("version", appVersion),
		slog.String("session", sessionID),
		slog.String("node_name", cfg.Node.Name),
		slog.Int("node_id", int(nodeID)),
		slog.Bool("headless", headless),
	)

	broadcastIP, err := resolveBroadcast(cfg.Network)
	if err != nil {
		return err
	}

	var requestTypes []tcnet.DataType
	if cfg.Requests.Enabled {
		if requestTypes, err = cfg.Requests.Types(); err != nil {
			return err
		}
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle system signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("shutdown signal received", slog.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	appMetrics := metrics.New()
	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg.Metrics.Address, appMetrics, logger)
	}

	receiver := tcnet.NewReceiver(tcnet.ReceiverConfig{
		BroadcastPort: cfg.Network.BroadcastPort,
		TimePort:      cfg.Network.TimePort,
		ListenerPort:  cfg.Node.ListenerPort,
		BroadcastIP:   broadcastIP,
		ReadBuffer:    cfg.Network.ReadBuffer,
		OnDrop:        appMetrics.DroppedDatagrams.Inc,
	}, logger)

	// The receiver outlives the monitor so the final OptOut can still be sent
	recvCtx, stopReceiver := context.WithCancel(context.Background())
	defer stopReceiver()
	if err := receiver.Start(recvCtx); err != nil {
		return fmt.Errorf("starting receiver: %w", err)
	}

	mon := monitor.New(monitor.Config{
		NodeName:      cfg.Node.Name,
		NodeID:        nodeID,
		Vendor:        cfg.Node.Vendor,
		App:           cfg.Node.App,
		Version:       versionParts,
		ListenerPort:  uint16(cfg.Node.ListenerPort),
		OptInInterval: cfg.Network.OptInInterval,
		NodeTimeout:   cfg.Network.NodeTimeout,
		RequestTypes:  requestTypes,
	}, receiver, appMetrics, logger)

	done := make(chan error, 1)
	go func() {
		done <- mon.Run(ctx, receiver.Datagrams())
	}()

	if headless {
		logEvents(mon.Events(), logger)
	} else if err := runDashboard(ctx, mon); err != nil {
		cancel()
		<-done
		return err
	}

	cancel()
	err = <-done
	stopReceiver()
	logger.Info("service stopped")
	return err
}

// runDashboard blocks until the user quits or ctx is cancelled
func runDashboard(ctx context.Context, mon *monitor.Monitor) error {
	p := tea.NewProgram(tui.NewModel(mon), tea.WithAltScreen())

	go func() {
		for e := range mon.Events() {
			p.Send(tui.EventMsg(e))
		}
	}()
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func logEvents(events <-chan monitor.LayerEvent, logger *slog.Logger) {
	for e := range events {
		if e.Kind == monitor.LayerChanged {
			continue
		}
		layers := make([]string, len(e.Layers))
		for i, l := range e.Layers {
			layers[i] = l.String()
		}
		logger.Info(e.Kind.String()+" changed",
			slog.String("node", e.Source.String()),
			slog.Any("layers", layers),
		)
	}
}

func startMetricsServer(ctx context.Context, addr string, m *metrics.Metrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/ping", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", slog.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}

func resolveBroadcast(cfg config.NetworkConfig) (net.IP, error) {
	if cfg.Interface != "" {
		return tcnet.BroadcastAddress(cfg.Interface)
	}
	ip := net.ParseIP(cfg.BroadcastAddress).To4()
	if ip == nil {
		return nil, fmt.Errorf("invalid broadcast address %q", cfg.BroadcastAddress)
	}
	return ip, nil
}

// randomNodeID derives a non-zero node ID from a random UUID
func randomNodeID() uint16 {
	id := uuid.New()
	if n := binary.BigEndian.Uint16(id[:2]); n != 0 {
		return n
	}
	return 1
}

func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stderr\n", cfg.Output, err)
			output = os.Stderr
		} else {
			output = file
		}
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	return slog.New(handler)
}
