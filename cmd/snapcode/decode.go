package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/faeln1/snapcode/internal/app/controllers"
	"github.com/faeln1/snapcode/internal/platform/scan"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <image>",
		Short: "Read the QR code in an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			pipeline, err := pipelineFor(cmd)
			if err != nil {
				return err
			}
			data, err := pipeline.Decoder.DecodeReader(cmd.Context(), f)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), decodeMessage(err))
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), data)
			return nil
		},
	}
}

// decodeMessage is the text the web page shows for a failed upload.
func decodeMessage(err error) string {
	switch {
	case errors.Is(err, scan.ErrNotImage):
		return controllers.MsgNotImage
	case errors.Is(err, scan.ErrNotFound):
		return controllers.MsgNoCode
	default:
		return controllers.MsgDecodeFailed
	}
}
