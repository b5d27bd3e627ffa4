package cmd

import (
	"io"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bugVanisher/bkrcodec/internal/bkrerrs"
	"github.com/bugVanisher/bkrcodec/internal/stream"
)

// interruptibleReader wraps stdin so a SIGINT can make the next Read
// report a clean EOF instead of being killed mid-record: the encoder
// still gets to write its EOR sectors and flush the last field.
type interruptibleReader struct {
	r       io.Reader
	stopped int32
}

func (ir *interruptibleReader) Read(p []byte) (int, error) {
	if atomic.LoadInt32(&ir.stopped) != 0 {
		return 0, io.EOF
	}
	return ir.r.Read(p)
}

func (ir *interruptibleReader) stop() {
	atomic.StoreInt32(&ir.stopped, 1)
}

func newEncodeCmd() *cobra.Command {
	var verbose bool
	var mf *modeFlags

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode stdin into framed sector bytes on stdout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := mf.resolve()
			if err != nil {
				return err
			}

			ir := &interruptibleReader{r: os.Stdin}
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			done := make(chan struct{})
			go func() {
				select {
				case <-sigCh:
					log.Warn().Msg("interrupt received, flushing end-of-record")
					ir.stop()
				case <-done:
				}
			}()
			defer func() {
				close(done)
				signal.Stop(sigCh)
			}()

			n, err := stream.Encode(os.Stdout, ir, stream.WithMode(mode))
			if verbose {
				log.Info().Int("sectors", n).Msg("encode complete")
			}
			if err != nil {
				return bkrerrs.Wrapf(err, "cmd: encode")
			}
			return nil
		},
	}
	mf = addModeFlags(cmd.Flags())
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "report sector counts to stderr")
	return cmd
}

func init() {
	rootCmd.AddCommand(newEncodeCmd())
}
