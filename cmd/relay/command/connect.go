package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omochice/socket-relay/internal/client"
)

var connectWS bool

var connectCmd = &cobra.Command{
	Use:   "connect [address]",
	Short: "Join the relay from the terminal",
	Long: `Connect to a relay, send stdin to it and print whatever other clients send.

The address defaults to RELAY_ADDR. With --ws the address is a WebSocket URL
such as ws://127.0.0.1:8080/ws.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		address := cfg.Addr
		if len(args) == 1 {
			address = args[0]
		}

		var (
			c   *client.Client
			err error
		)
		if connectWS {
			c, err = client.DialWebSocket(ctx, address)
		} else {
			c, err = client.Dial(ctx, address)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "connected to %s as %s\n", address, c.LocalAddr())

		err = c.Pipe(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	connectCmd.Flags().BoolVar(&connectWS, "ws", false, "connect over WebSocket")
	rootCmd.AddCommand(connectCmd)
}
