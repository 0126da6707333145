package cmd

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/msto63/robbot/pkg/core/grpc"
	"github.com/msto63/robbot/pkg/core/logging"
	"github.com/spf13/cobra"
)

var (
	healthAddr    string
	healthService string
	healthTimeout time.Duration
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Frågar admin-gRPC om robbot är redo",
	Long: `Frågar den körande robbot-instansens gRPC health service.

Avslutar med felkod om tjänsten inte svarar SERVING, så kommandot
kan användas som health check i en container.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().StringVar(&healthAddr, "addr", "", "Admin-adress (default: [grpc] i configen)")
	healthCmd.Flags().StringVar(&healthService, "service", "", "Tjänstnamn (default: general.name)")
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 5*time.Second, "Timeout för anropet")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("kunde inte läsa config", err)
		return err
	}

	addr := healthAddr
	if addr == "" {
		addr = dialAddress(cfg.GetServiceAddress("grpc"))
	}
	service := healthService
	if service == "" {
		service = cfg.General.Name
	}

	status, err := adminHealth(cmd.Context(), addr, service, healthTimeout)
	if err != nil {
		printError("health check misslyckades", err)
		return err
	}
	fmt.Printf("%s (%s): %s\n", service, addr, status)
	if status != "SERVING" {
		return fmt.Errorf("%s is %s", service, status)
	}
	return nil
}

// adminHealth asks the admin gRPC server for the serving status of service
func adminHealth(ctx context.Context, addr, service string, timeout time.Duration) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := grpc.DefaultClientConfig(addr)
	cfg.Timeout = timeout
	cfg.Logger = logging.New("health")
	return grpc.CheckHealth(ctx, cfg, service)
}

// dialAddress turns a listen address into one a client can dial
func dialAddress(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
