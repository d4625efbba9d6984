package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vjkit/gridlearn/internal/config"
	"github.com/vjkit/gridlearn/internal/launchpad"
	"github.com/vjkit/gridlearn/internal/model"
	"github.com/vjkit/gridlearn/internal/oscio"
	"github.com/vjkit/gridlearn/internal/shell"
)

var (
	flagConfig   string
	flagOscHost  string
	flagSendPort int
	flagRecvPort int
	flagMidiIn   string
	flagMidiOut  string
	flagWatch    bool
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "gridlearn",
	Short: "Map Launchpad pads to OSC commands without a screen",
	Long: `gridlearn turns a Launchpad Mini Mk3 into a standalone OSC controller.
Pads are configured entirely from the device: press the learn button,
pick a pad, trigger the command you want in your OSC application, then
choose mode and colors on the grid.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "config file path (default: user config dir)")
	rootCmd.Flags().StringVar(&flagOscHost, "osc-host", "127.0.0.1", "OSC destination host")
	rootCmd.Flags().IntVar(&flagSendPort, "send-port", 7777, "OSC destination port")
	rootCmd.Flags().IntVar(&flagRecvPort, "recv-port", 9999, "OSC listen port")
	rootCmd.Flags().StringVar(&flagMidiIn, "midi-in", "", "MIDI input port name (substring match)")
	rootCmd.Flags().StringVar(&flagMidiOut, "midi-out", "", "MIDI output port name (substring match)")
	rootCmd.Flags().BoolVar(&flagWatch, "watch", false, "reload config when edited externally")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
}

func run(cmd *cobra.Command, args []string) error {
	log := logrus.New()
	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	}

	configPath := flagConfig
	if configPath == "" {
		var err error
		configPath, err = config.DefaultPath()
		if err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		// Corrupt config degrades to a blank, recoverable state.
		log.WithError(err).Warn("starting with empty configuration")
	}
	log.WithFields(logrus.Fields{"path": configPath, "pads": len(cfg.Pads)}).Info("configuration loaded")

	device, err := launchpad.Open(flagMidiIn, flagMidiOut)
	if err != nil {
		return err
	}
	defer device.Close()

	if err := device.EnterProgrammerMode(); err != nil {
		return err
	}
	if err := device.Clear(); err != nil {
		log.WithError(err).Warn("failed to clear pads")
	}

	client := oscio.NewClient(flagOscHost, flagSendPort)

	sh := shell.New(model.NewAppState(cfg), device, client, log, configPath)

	server, err := oscio.NewServer(fmt.Sprintf(":%d", flagRecvPort), func(ev model.OscEvent) {
		sh.Post(shell.OscReceivedEvent{Event: ev})
	})
	if err != nil {
		return err
	}
	defer server.Close()
	go func() {
		if err := server.Serve(); err != nil {
			log.WithError(err).Warn("OSC server stopped")
		}
	}()

	err = device.Listen(
		func(pad model.PadID, velocity int) {
			sh.Post(shell.PadPressEvent{Pad: pad, Velocity: velocity})
		},
		func(pad model.PadID) {
			sh.Post(shell.PadReleaseEvent{Pad: pad})
		},
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagWatch {
		go func() {
			if err := sh.WatchConfig(ctx); err != nil {
				log.WithError(err).Warn("config watcher stopped")
			}
		}()
	}

	log.WithFields(logrus.Fields{"send": flagSendPort, "recv": flagRecvPort}).
		Info("ready - press the bottom-right scene button to enter learn mode")

	sh.Run(ctx)

	if err := device.Clear(); err != nil {
		log.WithError(err).Debug("failed to clear pads on shutdown")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
