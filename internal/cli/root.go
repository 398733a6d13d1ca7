package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/turtacn/healthbeacon/internal/healthcheck"
	"github.com/turtacn/healthbeacon/internal/host"
	"github.com/turtacn/healthbeacon/internal/monitor"
	"github.com/turtacn/healthbeacon/internal/receiver"
	"github.com/turtacn/healthbeacon/pkg/logger"
	"github.com/turtacn/healthbeacon/pkg/protocol"
)

// errUnhealthy makes `watch --once` exit with status 1 without printing an error.
var errUnhealthy = stderrors.New("unhealthy verdict received")

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "healthbeacon",
	Short:         "healthbeacon: startup and shutdown health notifier for component trees",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	noStop bool
	linger time.Duration
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the health check listener against an in-memory component tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := protocol.Load(cfgFile)
		if err != nil {
			return err
		}
		initObservability(cfg)
		return runSimulation(cmd.OutOrStdout(), cfg)
	},
}

var (
	udpAddr  string
	fifoPath string
	once     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Receive health verdicts over UDP and/or a FIFO",
	RunE: func(cmd *cobra.Command, args []string) error {
		if udpAddr == "" && fifoPath == "" {
			return fmt.Errorf("at least one of --udp or --fifo is required")
		}
		logger.InitLogger(levelOr(protocol.Default().Observability.LogLevel))

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, cmd.OutOrStdout(), receiver.Options{UDPAddr: udpAddr, FIFOPath: fifoPath}, once)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "healthbeacon.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error, fatal)")

	simulateCmd.Flags().BoolVar(&noStop, "no-stop", false, "leave the server running after startup")
	simulateCmd.Flags().DurationVar(&linger, "linger", 0, "time to wait for pending FIFO writes before exiting")

	watchCmd.Flags().StringVar(&udpAddr, "udp", "", "UDP address to listen on, e.g. 127.0.0.1:9000")
	watchCmd.Flags().StringVar(&fifoPath, "fifo", "", "FIFO path to read, created when missing")
	watchCmd.Flags().BoolVar(&once, "once", false, "exit after the first verdict: 0 if healthy, 1 otherwise")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(watchCmd)
}

func levelOr(def string) string {
	if logLevel != "" {
		return logLevel
	}
	return def
}

func initObservability(cfg protocol.Config) {
	logger.InitLogger(levelOr(cfg.Observability.LogLevel))
	monitor.InitMetrics(cfg.Observability.MetricsPort)
}

// runSimulation starts the configured tree with the listener attached and,
// unless disabled, stops and destroys it afterwards.
func runSimulation(out io.Writer, cfg protocol.Config) error {
	srv, err := host.Build(cfg.Simulation.Tree)
	if err != nil {
		return err
	}
	l := healthcheck.New(cfg.Notifier)
	srv.AddListener(l)

	logger.Log.Info("Simulation: starting server", "server", srv.Name(), "port", srv.Port())
	if err := srv.Start(); err != nil {
		return err
	}
	fmt.Fprintf(out, "startup completed: %v\n", l.Started())

	if cfg.Simulation.StopAfterStart && !noStop && !srv.Destroyed() {
		if err := srv.Stop(); err != nil {
			return err
		}
		if err := srv.Destroy(); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "server state: %s\n", srv.State())

	if linger > 0 {
		time.Sleep(linger)
	}
	return nil
}

// runWatch prints every verdict. With once set it returns after the first,
// yielding errUnhealthy for an unhealthy verdict.
func runWatch(ctx context.Context, out io.Writer, opts receiver.Options, once bool) error {
	var (
		mu   sync.Mutex
		last *receiver.Verdict
	)
	err := receiver.Watch(ctx, opts, func(v receiver.Verdict) error {
		mu.Lock()
		defer mu.Unlock()
		status := "healthy"
		if !v.Healthy {
			status = "unhealthy"
		}
		fmt.Fprintf(out, "%s %s %s from %s\n", v.At.Format(time.RFC3339), status, v.Channel, v.From)
		if once {
			last = &v
			return receiver.ErrStop
		}
		return nil
	})
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if last != nil && !last.Healthy {
		return errUnhealthy
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !stderrors.Is(err, errUnhealthy) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
