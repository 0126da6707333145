package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/msto63/robbot/internal/gateway"
	"github.com/msto63/robbot/pkg/core/grpc"
	"github.com/msto63/robbot/pkg/core/logging"
	"github.com/msto63/robbot/pkg/core/version"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// healthInterval is how often the registry is mirrored into the gRPC
// health service
const healthInterval = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Startar chattgatewayen, schemaläggaren och admin-gRPC",
	Long: `Startar robbot.

  gateway   - websocket-chatt och HTTP-API (default :8080)
  scheduler - dagens lektioner, veckans schema och skämt
  notifier  - direktmeddelanden till lärare när hjälpkön ändras
  grpc      - standard gRPC health service (default :9090)`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, b, err := buildBot()
	if err != nil {
		printError("kunde inte starta", err)
		return err
	}
	defer b.Close()

	logger := logging.New("serve")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw := gateway.New(gateway.Config{
		Host:           cfg.Gateway.Host,
		Port:           cfg.Gateway.Port,
		ReadTimeout:    cfg.Gateway.ReadTimeout.Duration,
		WriteTimeout:   cfg.Gateway.WriteTimeout.Duration,
		BotName:        cfg.General.Name,
		CommandPrefix:  cfg.Gateway.CommandPrefix,
		DefaultChannel: cfg.Gateway.DefaultChannel,
		Greeting:       cfg.Gateway.Greeting,
		AllowedOrigins: allowedOrigins(cfg.Gateway.CORS.Enabled, cfg.Gateway.CORS.AllowedOrigins),
		Logger:         logging.New("gateway"),
	}, b.Processor, b.Health)

	if err := gw.Listen(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return gw.Serve(ctx) })
	g.Go(func() error {
		return b.Scheduler.Run(ctx, cfg.Scheduler.Tick.Duration, gw.Hub())
	})

	if b.Timetable != nil {
		g.Go(func() error {
			if err := b.Timetable.Watch(ctx, logging.New("timetable")); err != nil {
				logger.Warn("Timetable watch stopped", "error", err)
			}
			return nil
		})
	}

	if b.HelpQueue != nil {
		notifier := gateway.NewNotifier(gw.Hub(), gateway.NotifierConfig{
			Key:      "helpqueue",
			Role:     cfg.Gateway.NotifyRole,
			Interval: cfg.Gateway.NotifyInterval.Duration,
			Source:   b.HelpQueue.Summary,
			Cache:    b.Cache,
			Logger:   logging.New("notifier"),
		})
		g.Go(func() error { return notifier.Run(ctx) })
	}

	if cfg.GRPC.Enabled {
		grpcCfg := grpc.DefaultServerConfig()
		grpcCfg.Host = cfg.GRPC.Host
		grpcCfg.Port = cfg.GRPC.Port
		grpcCfg.EnableReflection = cfg.GRPC.EnableReflection
		grpcCfg.ServiceName = cfg.General.Name
		grpcCfg.Logger = logging.New("grpc")
		admin := grpc.NewServer(grpcCfg)
		if err := admin.Listen(); err != nil {
			return err
		}
		g.Go(func() error { return admin.Serve(ctx) })
		g.Go(func() error {
			admin.WatchHealth(ctx, b.Health, healthInterval)
			return nil
		})
		fmt.Printf("Admin gRPC:   %s\n", admin.Address())
	}

	fmt.Printf("robbot v%s\n", version.Platform)
	fmt.Printf("Chatt:        ws://%s/ws\n", gw.Address())
	fmt.Printf("Health Check: http://%s/health\n", gw.Address())
	fmt.Println("Tryck Ctrl+C för att avsluta")

	if err := g.Wait(); err != nil {
		logger.Error("Service failed", "error", err)
		return err
	}
	logger.Info("Stopped")
	return nil
}

// allowedOrigins returns nil, meaning any origin, unless CORS restrictions
// are enabled
func allowedOrigins(enabled bool, origins []string) []string {
	if !enabled {
		return nil
	}
	return origins
}
