package cmd

import (
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bugVanisher/bkrcodec/internal/bkrerrs"
	"github.com/bugVanisher/bkrcodec/internal/stream"
)

func newDecodeCmd() *cobra.Command {
	var skipBad bool
	var timeOnly bool
	var verbose bool
	var mf *modeFlags

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode framed sector bytes from stdin into payload bytes on stdout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := mf.resolve()
			if err != nil {
				return err
			}

			out := io.Writer(os.Stdout)
			if timeOnly {
				out = io.Discard
			}

			report, err := stream.Decode(out, os.Stdin, skipBad, stream.WithMode(mode))
			if verbose || timeOnly {
				log.Info().
					Int("sectors", report.Sectors).
					Uint64("bad_sectors", report.Counters.BadSectors).
					Uint64("uncorrectable", report.Counters.Uncorrectable).
					Uint64("skipped_sectors", report.Counters.SkippedSectors).
					Int("frame_errors", report.Frame.FrameErrors).
					Msg("decode complete")
			}
			if err != nil {
				return bkrerrs.Wrapf(err, "cmd: decode")
			}
			return nil
		},
	}
	mf = addModeFlags(cmd.Flags())
	cmd.Flags().BoolVarP(&skipBad, "skip-bad", "s", false, "continue past uncorrectable sectors instead of stopping")
	cmd.Flags().BoolVarP(&timeOnly, "time-only", "t", false, "discard payload bytes and only report decode statistics")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "report decode statistics to stderr")
	return cmd
}

func init() {
	rootCmd.AddCommand(newDecodeCmd())
}
