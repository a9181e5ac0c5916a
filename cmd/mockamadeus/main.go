// Command mockamadeus serves fake Amadeus token and flight-offers endpoints
// for local development. Point AMADEUS_BASE_URL at it.
package main

import (
	"fmt"
	"os"
	"time"

	"farewatch/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	port         string
	clientID     string
	clientSecret string
	maxDelay     time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "mockamadeus",
	Short: "Fake Amadeus flight-offers API for local runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := logger.NewZeroLog("development")
		gin.SetMode(gin.ReleaseMode)

		r := gin.New()
		r.Use(gin.Recovery())
		newMockServer(clientID, clientSecret, maxDelay).register(r)

		addr := fmt.Sprintf(":%s", port)
		log.Info("mock_amadeus_listening", logger.Field{Key: "addr", Value: addr})
		return r.Run(addr)
	},
}

func init() {
	rootCmd.Flags().StringVar(&port, "port", "8081", "Listen port")
	rootCmd.Flags().StringVar(&clientID, "client-id", "local", "Accepted client id")
	rootCmd.Flags().StringVar(&clientSecret, "client-secret", "local", "Accepted client secret")
	rootCmd.Flags().DurationVar(&maxDelay, "max-delay", 100*time.Millisecond, "Upper bound of the simulated latency")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
