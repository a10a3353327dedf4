package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/zbridge"
)

const unset = "-"

type Flags struct {
	Paths   zbridge.StandardPaths
	Config  string
	Verbose bool
}

func Run() error {
	var conf zbridge.Configuration
	var f Flags

	com := &cobra.Command{
		Use:   "zbridge",
		Short: "Extract and catalog bridge function declarations",
		Args:  cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			if f.Verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}

			// binds the paths, initializes the configuration and
			// reads the settings file
			c, err := zbridge.LoadSettings(f.Config, &f.Paths)
			if err != nil {
				return err
			}
			conf = *c
			return nil
		},
	}

	// This set of flags propagates
	fl := com.PersistentFlags()

	stdpaths := &f.Paths
	pathFlags := pflag.NewFlagSet("Standard Paths", pflag.ExitOnError)
	pathFlags.StringVar(&stdpaths.ZBRIDGE_APPNAME, "stdpath.app", unset, "App name")
	pathFlags.StringVar(&stdpaths.CONFIG_HOME, "stdpath.config", unset, "Configuration directory")
	pathFlags.StringVar(&stdpaths.STATE_HOME, "stdpath.state", unset, "State directory")
	pathFlags.StringVar(&stdpaths.DATA_HOME, "stdpath.data", unset, "Data directory")
	fl.AddFlagSet(pathFlags)

	fl.StringVar(&f.Config, "config", "", "Settings file. Defaults to settings.json in the configuration directory")
	fl.BoolVarP(&f.Verbose, "verbose", "v", false, "Debug logging")

	com.AddCommand(
		extractCommand(&conf),
		listCommand(&conf),
	)

	return com.Execute()
}
