package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/omochice/socket-relay/internal/client"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status [http-address]",
	Short: "Show the peers of a running relay",
	Long: `Fetch /status from a relay's HTTP side endpoint. The address defaults to
RELAY_HTTP_ADDR.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := cfg.HTTPAddr
		if len(args) == 1 {
			address = args[0]
		}
		if address == "" {
			return errors.New("no HTTP address: pass one or set RELAY_HTTP_ADDR")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		status, err := client.FetchStatus(ctx, address)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if statusJSON {
			data, err := status.Encode()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "Relay:  %s\n", status.Addr)
		fmt.Fprintf(out, "Uptime: %s\n", status.Uptime.Round(time.Second))
		fmt.Fprintf(out, "Peers:  %d\n", len(status.Peers))
		for _, peer := range status.Peers {
			fmt.Fprintf(out, "  - %s\n", peer)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the raw JSON document")
	rootCmd.AddCommand(statusCmd)
}
