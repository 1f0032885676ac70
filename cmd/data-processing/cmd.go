// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"strings"
	"syscall"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/internal/app"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "DATA_PROCESSING"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "data-processing",
		Short:        "Summarize batches of values with full trace export",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP processing API and gRPC health checks",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(v, configFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := builder.BuilderFunc[builder.Runtime](func(ctx context.Context) (builder.Runtime, error) {
				r, err := app.Build(v, app.LogOutput(cmd.ErrOrStderr()), app.TelemetryOutput(cmd.OutOrStdout())).Build(ctx)
				if err != nil {
					return nil, err
				}
				return builder.NotifyOnSignal(builder.RecoverRuntime(r), syscall.SIGTERM), nil
			})
			return builder.Run(cmd.Context(), rt)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "path to a yaml, json or toml config file")
	cmd.Flags().String("http-addr", ":8080", "address the HTTP API listens on")
	cmd.Flags().String("grpc-addr", ":9090", "address the gRPC health service listens on")

	// flag binding only fails for a nil flag
	_ = v.BindPFlag("http.addr", cmd.Flags().Lookup("http-addr"))
	_ = v.BindPFlag("grpc.addr", cmd.Flags().Lookup("grpc-addr"))
	return cmd
}

func loadConfig(v *viper.Viper, configFile string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		return nil
	}
	v.SetConfigFile(configFile)
	return v.ReadInConfig()
}
