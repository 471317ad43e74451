package main

import (
	"fmt"
	"os"

	"github.com/CrimsonAS/peruse/acbf"
	"github.com/CrimsonAS/peruse/internal/config"
	"github.com/CrimsonAS/peruse/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds the state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "peruse-acbf",
		Short: "Inspect ACBF comic books and book libraries",
		Long: `Inspect the identified objects and internal references of ACBF comic books,
serve them to a frontend over the qbackend protocol, and list book libraries.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: ~/.config/peruse/config.yaml)")
	root.PersistentFlags().String("log-level", "",
		"log level: debug, info, warn or error")
	root.PersistentFlags().String("log-format", "",
		"log format: text or json")

	// Bind flags to viper
	_ = a.v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(
		a.newReferencesCmd(),
		a.newIndexCmd(),
		a.newServeCmd(),
		a.newLibraryCmd(),
	)
	return root
}

func (a *app) initConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadViper(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	// stdout may carry the frontend protocol, so logs always go to stderr
	logging.InitLogger(level, format, cmd.ErrOrStderr())
	a.cfg = cfg
	return nil
}

// readDocument loads the ACBF document at path and reports skipped elements
// on the command's error stream.
func readDocument(cmd *cobra.Command, path string) (*acbf.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, res, err := acbf.ReadDocument(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	for _, skipped := range res.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: skipped: %v\n", path, skipped)
	}
	return doc, nil
}
