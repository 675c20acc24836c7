package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"conduit/internal/domain"
)

func devicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage approved mobile devices",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List approved devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := wire.Devices.ListDevices()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Println("No approved devices.")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "IDENTITY\tDEVICE\tBROWSER\tAPPROVED")
			for _, d := range devices {
				approved := time.Unix(d.ApprovedUTC, 0).UTC().Format(time.RFC3339)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Identity, d.Device, d.Browser, approved)
			}
			return tw.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "revoke [identity]",
		Short: "Forget an approved device; it must be approved again to pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := wire.Devices.Revoke(domain.DeviceIdentity(args[0]))
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("no approved device %q", args[0])
			}
			fmt.Printf("Revoked %s\n", args[0])
			return nil
		},
	})
	return cmd
}
