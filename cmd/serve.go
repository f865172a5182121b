package cmd

import (
	"github.com/emrgen/manual/internal/config"
	"github.com/emrgen/manual/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var grpcPort string
	var httpPort string

	command := &cobra.Command{
		Use:   "serve",
		Short: "start the grpc and rest servers",
		Run: func(cmd *cobra.Command, args []string) {
			cnf := config.LoadConfig()
			if cmd.Flag("grpc-port").Changed {
				cnf.Server.GrpcPort = grpcPort
			}
			if cmd.Flag("http-port").Changed {
				cnf.Server.HttpPort = httpPort
			}

			if err := server.Start(cnf); err != nil {
				logrus.Fatalf("error starting server: %v", err)
			}
		},
	}

	command.Flags().StringVar(&grpcPort, "grpc-port", "4020", "grpc port")
	command.Flags().StringVar(&httpPort, "http-port", "4021", "http port")

	return command
}
