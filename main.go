package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hdlclink/config"
	"hdlclink/device/link"
	"hdlclink/device/transport"
	"hdlclink/logging"
)

const appName = "hdlclink"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	device     string
	logLevel   string

	conf   config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Send and receive HDLC-framed messages over a serial or TCP link",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", config.DefaultPath, "path to the TOML config file")
	flags.StringVarP(&a.device, "device", "d", "", "serial device or host:port, overrides link.device")
	flags.StringVar(&a.logLevel, "log-level", "", "trace|debug|info|warn|error, overrides log.level")

	root.AddCommand(
		newSendCmd(a),
		newReadCmd(a),
		newMonitorCmd(a),
		newSelftestCmd(a),
	)
	return root
}

func (a *app) load() error {
	conf, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.device != "" {
		conf.Link.Device = a.device
	}
	if a.logLevel != "" {
		conf.Log.Level = a.logLevel
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	a.conf = conf
	a.logger = logging.Init(appName, conf.Log.Level, conf.Log.Console)
	return nil
}

// open connects the configured transport and binds a link to it.
func (a *app) open(logger zerolog.Logger) (*link.Link, error) {
	t, err := transport.Open(a.conf.Link)
	if err != nil {
		return nil, err
	}

	l, err := link.New(t,
		link.WithResetInput(a.conf.Link.ResetOnOpen),
		link.WithPollInterval(a.conf.Link.PollInterval.Duration),
		link.WithLogger(logger.With().Str("device", a.conf.Link.Device).Logger()),
	)
	if err != nil {
		t.Close()
		return nil, err
	}
	return l, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
