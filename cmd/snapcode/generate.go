package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faeln1/snapcode/internal/domain/payload"
	"github.com/faeln1/snapcode/internal/platform/export"
	"github.com/faeln1/snapcode/internal/platform/qr"
	"github.com/faeln1/snapcode/internal/platform/render"
)

func newGenerateCmd() *cobra.Command {
	var (
		modeName string
		in       payload.Input
		outDir   string
		ascii    bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render a QR code from a URL, text or contact",
		Example: `  snapcode generate --mode url --url example.com
  snapcode generate --mode text --text "hello" --ascii
  snapcode generate --mode contact --first-name Ada --email ada@example.com --out ./codes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := payload.ParseMode(modeName)
			if err != nil || !mode.Generative() {
				return fmt.Errorf("--mode must be url, text or contact, got %q", modeName)
			}
			data, err := payload.Format(mode, in)
			if err != nil {
				return err
			}
			if data == "" {
				return errors.New("nothing to encode: input is empty")
			}

			if ascii {
				art, err := qr.ASCII(data)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), art)
				return nil
			}

			pipeline, err := pipelineFor(cmd)
			if err != nil {
				return err
			}
			target := render.NewTarget()
			artifact, err := pipeline.Encoder.Encode(cmd.Context(), data, target)
			if err != nil {
				return err
			}
			dl, err := export.NewDownload(target, mode)
			if err != nil {
				return err
			}
			path, err := dl.Save(outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s tier, %d bytes)\n", path, artifact.Tier, len(dl.PNG))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&modeName, "mode", "m", string(payload.ModeURL), "Payload kind: url, text or contact")
	f.StringVar(&in.URL, "url", "", "URL to encode; https:// is added when no scheme is given")
	f.StringVar(&in.Text, "text", "", "Free text to encode")
	f.StringVar(&in.Contact.FirstName, "first-name", "", "Contact first name")
	f.StringVar(&in.Contact.LastName, "last-name", "", "Contact last name")
	f.StringVar(&in.Contact.Phone, "phone", "", "Contact phone")
	f.StringVar(&in.Contact.Email, "email", "", "Contact email")
	f.StringVar(&in.Contact.Organization, "org", "", "Contact organization")
	f.StringVar(&in.Contact.URL, "website", "", "Contact website")
	f.StringVarP(&outDir, "out", "o", ".", "Directory the PNG is written to")
	f.BoolVar(&ascii, "ascii", false, "Print the code to the terminal instead of writing a PNG")
	return cmd
}
