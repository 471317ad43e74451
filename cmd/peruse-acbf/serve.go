package main

import (
	"io"

	"github.com/CrimsonAS/peruse/acbf"
	qbackend "github.com/CrimsonAS/peruse/backend"
	"github.com/CrimsonAS/peruse/internal/logging"
	"github.com/spf13/cobra"
)

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve FILE",
		Short: "Serve the identified objects of an ACBF document on stdin/stdout",
		Long: `Publish the identified objects of an ACBF document as the model
"identifiedObjects" over the qbackend protocol on stdin and stdout. The
command returns when the frontend closes stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			model := acbf.NewIdentifiedObjectModel()
			model.SetDocument(doc)

			in, ok := cmd.InOrStdin().(io.ReadCloser)
			if !ok {
				in = io.NopCloser(cmd.InOrStdin())
			}
			out, ok := cmd.OutOrStdout().(io.WriteCloser)
			if !ok {
				out = nopWriteCloser{cmd.OutOrStdout()}
			}

			conn := qbackend.NewConnectionSplit(in, out)
			conn.BatchSize = a.cfg.Serve.BatchSize
			if err := conn.Publish("identifiedObjects", model); err != nil {
				return err
			}
			logging.Component("serve").Info("serving document", "file", args[0], "objects", model.RowCount())
			return conn.Run()
		},
	}
}
