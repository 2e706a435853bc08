package command

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omochice/socket-relay/internal/discovery"
	"github.com/omochice/socket-relay/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay",
	Long: `Bind the relay endpoint and relay bytes between clients until SIGINT or
SIGTERM. With --http, WebSocket clients (/ws), a status document (/status) and
Prometheus metrics (/metrics) are served on a second port.

A bind failure exits with status 1.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("addr") {
			cfg.Addr, _ = flags.GetString("addr")
		}
		if flags.Changed("http") {
			cfg.HTTPAddr, _ = flags.GetString("http")
		}
		if flags.Changed("read-buffer") {
			cfg.ReadBufferSize, _ = flags.GetInt("read-buffer")
		}
		if flags.Changed("mdns") {
			cfg.MDNS, _ = flags.GetBool("mdns")
		}
		if flags.Changed("mdns-name") {
			cfg.MDNSName, _ = flags.GetString("mdns-name")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		srv := server.New(server.Options{
			Addr:           cfg.Addr,
			HTTPAddr:       cfg.HTTPAddr,
			ReadBufferSize: cfg.ReadBufferSize,
			Logger:         logger,
		})
		if err := srv.Listen(); err != nil {
			return fmt.Errorf("failed to start relay: %w", err)
		}

		if cfg.MDNS {
			if ann := announce(srv.Addr()); ann != nil {
				defer func() {
					if err := ann.Close(); err != nil {
						logger.Warn("mdns_close_failed", "error", err.Error())
					}
				}()
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errChan := make(chan error, 1)
		go func() {
			logger.Info("relay_started", "addr", srv.Addr(), "http_addr", srv.HTTPAddr())
			errChan <- srv.Serve()
		}()

		select {
		case err := <-errChan:
			srv.Stop()
			if err != nil {
				return fmt.Errorf("relay error: %w", err)
			}
		case <-ctx.Done():
			logger.Info("shutdown_signal", "reason", context.Cause(ctx).Error())
			srv.Stop()
		}
		return nil
	},
}

// announce publishes the relay over mDNS. Failures are logged only.
func announce(addr string) *discovery.Announcer {
	port, err := discovery.PortOf(addr)
	if err != nil {
		logger.Warn("mdns_announce_failed", "error", err.Error())
		return nil
	}
	ann, err := discovery.Announce(cfg.MDNSName, port)
	if err != nil {
		logger.Warn("mdns_announce_failed", "error", err.Error())
		return nil
	}
	logger.Info("mdns_announced", "name", ann.Name(), "service", discovery.ServiceType, "port", port)
	return ann
}

func init() {
	serveCmd.Flags().String("addr", "", "relay listen address (host:port), overrides RELAY_ADDR")
	serveCmd.Flags().String("http", "", "HTTP side endpoint address, overrides RELAY_HTTP_ADDR")
	serveCmd.Flags().Int("read-buffer", 0, "read chunk size in bytes, overrides RELAY_READ_BUFFER")
	serveCmd.Flags().Bool("mdns", false, "announce the relay over mDNS, overrides RELAY_MDNS")
	serveCmd.Flags().String("mdns-name", "", "mDNS instance name, overrides RELAY_MDNS_NAME")
	rootCmd.AddCommand(serveCmd)
}
