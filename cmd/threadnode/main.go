// Command threadnode is the daemon entrypoint for one Thread mesh node:
// it loads configuration, wires the protocol stack to a POSIX radio
// co-processor, and serves diagnostic state until interrupted. Grounded
// on the teacher's cmd/direwolf/main.go ("parse flags and config, wire
// every subsystem, block"), rewritten without the soundcard/modem/DSP
// surface this stack doesn't have.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/openthread-go/threadcore/internal/config"
	"github.com/openthread-go/threadcore/internal/diag"
	"github.com/openthread-go/threadcore/internal/ip6"
	"github.com/openthread-go/threadcore/internal/log"
	"github.com/openthread-go/threadcore/internal/mac"
	"github.com/openthread-go/threadcore/internal/platform/posix"
	"github.com/openthread-go/threadcore/internal/stack"
)

var logger = log.ForRegion("threadnode")

func main() {
	fs := pflag.NewFlagSet("threadnode", pflag.ExitOnError)
	configFile := config.ConfigFilePath(fs)
	applyFlags := config.Flags(fs)
	verbose := fs.BoolP("verbose", "v", false, "Enable debug-level logging.")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if *verbose {
		log.SetLevel(charmlog.DebugLevel)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load configuration", "path", *configFile, "err", err)
		os.Exit(1)
	}
	applyFlags(&cfg)

	if err := run(cfg); err != nil {
		logger.Error("exiting", "err", err)
		os.Exit(1)
	}
}

var start = time.Now()

// nowMs is the stack's time source: wall-clock milliseconds since process
// start. Nothing in the protocol needs a true monotonic or calendar
// clock, only a counter that advances at real time.
func nowMs() uint32 {
	return uint32(time.Since(start).Milliseconds())
}

func run(cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	captureLog, err := posix.NewCaptureLog(cfg.CaptureLogDir)
	if err != nil {
		return fmt.Errorf("threadnode: capture log: %w", err)
	}
	defer captureLog.Close()

	serial := posix.NewSerial(cfg.RadioDevice, 115200)
	if err := serial.Enable(); err != nil {
		return fmt.Errorf("threadnode: open radio device %s: %w", cfg.RadioDevice, err)
	}
	defer serial.Disable()
	radio := posix.NewRadio(serial)

	random := posix.NewRandom()
	random.Init(uint32(os.Getpid()) ^ uint32(time.Now().UnixNano()))

	if len(cfg.MasterKey) != 16 {
		return fmt.Errorf("threadnode: master_key must be 16 bytes, got %d", len(cfg.MasterKey))
	}
	var masterKey [16]byte
	copy(masterKey[:], cfg.MasterKey)

	var selfExt mac.ExtAddress
	for i := range selfExt {
		selfExt[i] = byte(random.Get())
	}
	selfExt[0] |= 0x02 // locally administered, per 802.15.4 EUI-64 convention

	meshLocal := ip6.Address{0xfd, 0xde, 0xad, 0x00, 0xbe, 0xef, 0x00, 0x00}

	s := stack.New(stack.Options{
		MasterKey:       masterKey,
		SelfExt:         selfExt,
		SelfShort:       mac.ShortAddress(0xfffe),
		MeshLocalPrefix: meshLocal,
		Radio:           radio,
		Random:          random,
		Now:             nowMs,
	})
	s.SetNetworkName(cfg.NetworkName)
	s.MAC.SetChannel(cfg.Channel)

	if cfg.DiagnosticSocket != "" {
		diagServer, err := diag.Listen(cfg.DiagnosticSocket, s)
		if err != nil {
			return fmt.Errorf("threadnode: diagnostic socket: %w", err)
		}
		defer diagServer.Close()
		go func() {
			if err := diagServer.Serve(); err != nil {
				logger.Debug("diagnostic server stopped", "err", err)
			}
		}()
		logger.Info("diagnostic socket listening", "path", cfg.DiagnosticSocket)
	}

	var advertiser *posix.BorderAgentAdvertiser
	if cfg.TunInterface != "" {
		advertiser, err = posix.StartBorderAgentAdvertiser(ctx, 49191, cfg.NetworkName, cfg.ExtPANID)
		if err != nil {
			logger.Warn("border agent advertisement failed to start", "err", err)
		} else {
			defer advertiser.Stop()
		}
	}

	s.Role.Start()
	logger.Info("thread node started", "network", cfg.NetworkName, "channel", cfg.Channel, "mode", cfg.Mode)

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
