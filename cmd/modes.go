package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bugVanisher/bkrcodec/internal/format"
)

func newModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List the 12-row format table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-14s %6s %6s %6s %6s %4s %4s %3s %6s %6s %6s\n",
				"mode", "field", "active", "klen", "data", "rll", "intlv", "par", "sector", "leader", "trail")
			for _, f := range format.All() {
				fmt.Fprintf(w, "%-14s %6d %6d %6d %6d %4v %6d %3d %6d %6d %6d\n",
					f.Mode, f.FieldSize, f.ActiveSize, f.KeyLength, f.DataSize,
					f.RLL, f.Interleave, f.ParitySize, f.SectorSize, f.Leader, f.Trailer)
			}
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newModesCmd())
}
