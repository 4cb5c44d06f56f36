package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/overpass-network/overpass/common/check"
	"github.com/overpass-network/overpass/common/logging"
	"github.com/overpass-network/overpass/internal/db"
	"github.com/overpass-network/overpass/internal/replication"
	"github.com/overpass-network/overpass/internal/storage"
	"github.com/overpass-network/overpass/internal/telemetry"
	"github.com/overpass-network/overpass/internal/types"
	"github.com/overpass-network/overpass/internal/zkp"
)

type Command uint

const (
	CommandNone Command = iota
	CommandRun
)

type config struct {
	command Command

	nodeId            string
	stake             uint64
	dbPath            string
	responseThreshold int
	responseInterval  time.Duration
	redundancy        int
	probability       float64
	batteryCharge     uint64
	batteryMax        uint64
	batteryCost       uint64
	metrics           string
}

func main() {
	cfg := parseArgs()

	if cfg.command != CommandRun {
		fmt.Printf("Overpass failed: unknown command\n")
		os.Exit(1)
	}

	if err := processRun(cfg); err != nil {
		fmt.Printf("Overpass failed: %s\n", err.Error())
		os.Exit(1)
	}

	os.Exit(0)
}

func processRun(cfg *config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	logger := logging.NewLogger("overpass")

	if err := initTelemetry(ctx, cfg); err != nil {
		return err
	}
	defer telemetry.Shutdown(ctx)

	nodeIdBytes, err := hex.DecodeString(cfg.nodeId)
	if err != nil {
		return fmt.Errorf("invalid node id: %w", err)
	}

	storageConfig := storage.DefaultConfig(types.BytesToNodeId(nodeIdBytes))
	storageConfig.Battery = storage.BatteryConfig{
		InitialCharge:    cfg.batteryCharge,
		MaxCharge:        cfg.batteryMax,
		CostPerOperation: cfg.batteryCost,
	}
	storageConfig.Sync = storage.SyncConfig{
		ResponseThreshold: cfg.responseThreshold,
		ResponseInterval:  cfg.responseInterval,
	}
	storageConfig.Replication = storage.ReplicationConfig{
		RedundancyFactor:       cfg.redundancy,
		PropagationProbability: cfg.probability,
	}

	database, err := db.NewBadgerDb(cfg.dbPath, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	node, err := storage.NewNode(storageConfig, cfg.stake, database, logger)
	if err != nil {
		return err
	}
	if err := node.LoadState(ctx); err != nil {
		return err
	}

	manager, err := replication.NewResponseManager(
		node,
		zkp.DevBackend{},
		storageConfig.Sync.ResponseThreshold,
		storageConfig.Sync.ResponseInterval,
		logger)
	if err != nil {
		return err
	}

	if cfg.metrics != "none" {
		handler, err := replication.NewMetricsHandler("overpass.replication")
		if err != nil {
			return err
		}
		manager.WithMetricsHandler(handler)
	}

	if _, err := replication.NewDistributionManager(
		node,
		replication.LogSender{Logger: logger},
		storageConfig.Replication,
		time.Now().UnixNano(),
		logger,
	); err != nil {
		return err
	}

	if err := manager.Start(ctx); err != nil {
		return err
	}
	defer manager.Stop()

	logger.Info().
		Stringer(logging.FieldNodeId, node.Id()).
		Msg("storage node running")

	<-ctx.Done()
	return node.SaveState(context.Background())
}

func initTelemetry(ctx context.Context, cfg *config) error {
	var option telemetry.ExportOption
	switch cfg.metrics {
	case "none":
		option = telemetry.ExportOptionNone
	case "stdout":
		option = telemetry.ExportOptionStdout
	case "grpc":
		option = telemetry.ExportOptionGrpc
	default:
		return fmt.Errorf("unknown metrics option: %s", cfg.metrics)
	}

	return telemetry.Init(ctx, &telemetry.Config{
		ServiceName:        "overpass",
		MetricExportOption: option,
	})
}

func parseArgs() *config {
	cfg := &config{}
	rootCmd := &cobra.Command{
		Use:           "overpass [global flags] [command]",
		Short:         "overpass storage node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.nodeId, "node-id", "00", "storage node id, hex encoded")
	flags.Uint64Var(&cfg.stake, "stake", storage.MinStake, "stake backing the node")
	flags.StringVar(&cfg.dbPath, "db-path", "overpass.db", "path where to store database")
	flags.IntVar(&cfg.responseThreshold, "response-threshold", 1,
		"stored proofs required before a verification batch runs")
	flags.DurationVar(&cfg.responseInterval, "response-interval", time.Second,
		"spacing between verification cycles")
	flags.IntVar(&cfg.redundancy, "redundancy", 3, "target replica count per object")
	flags.Float64Var(&cfg.probability, "probability", 0.5, "per-peer gossip probability")
	flags.Uint64Var(&cfg.batteryCharge, "battery-charge", 1000, "initial battery charge")
	flags.Uint64Var(&cfg.batteryMax, "battery-max", 1000, "battery capacity")
	flags.Uint64Var(&cfg.batteryCost, "battery-cost", 1, "battery cost per admission")
	flags.StringVar(&cfg.metrics, "metrics", "none", "metric export: none|stdout|grpc")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the storage node",
		Run: func(cmd *cobra.Command, args []string) {
			cfg.command = CommandRun
		},
	}
	rootCmd.AddCommand(runCmd)

	logLevel := rootCmd.PersistentFlags().StringP(
		"log-level", "l", "info", "log level: trace|debug|info|warn|error|fatal|panic")
	logging.SetupGlobalLogger(*logLevel)

	check.PanicIfErr(rootCmd.Execute())

	return cfg
}
