package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"nodpi-proxy/internal/autostart"
	"nodpi-proxy/internal/blacklist"
	"nodpi-proxy/internal/config"
	"nodpi-proxy/internal/fragment"
	"nodpi-proxy/internal/logging"
	"nodpi-proxy/internal/proxy"
	"nodpi-proxy/internal/ui"
	"nodpi-proxy/internal/update"
)

const (
	version = "1.2.0"
	tagline = "ClientHello fragmentation proxy"
)

func main() {
	// .env is optional; in service deployments the variables come from
	// the environment itself.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		noBlacklist   bool
		autoBlacklist bool
		install       bool
		uninstall     bool
	)

	cmd := &cobra.Command{
		Use:          "nodpi-proxy",
		Short:        "Local HTTP proxy that fragments TLS ClientHello records to slip past DPI filters",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if install || uninstall {
				return runAutostart(install)
			}
			if noBlacklist {
				cfg.Mode = config.ModeOff
			}
			if autoBlacklist {
				cfg.Mode = config.ModeAuto
			}
			return run(cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Host, "host", cfg.Host, "bind host")
	f.IntVar(&cfg.Port, "port", cfg.Port, "bind port")
	f.StringVar(&cfg.SourceHost, "source-host", cfg.SourceHost, "local source address to bind outbound connections to")
	f.StringVar(&cfg.Blacklist, "blacklist", cfg.Blacklist, "domain blacklist file")
	f.StringVar((*string)(&cfg.Fragment), "fragment", string(cfg.Fragment), "fragment strategy (random|sni)")
	f.StringVar((*string)(&cfg.Matching), "matching", string(cfg.Matching), "domain matching mode (strict|loose)")
	f.StringVar(&cfg.LogAccess, "log-access", cfg.LogAccess, "access log file")
	f.StringVar(&cfg.LogError, "log-error", cfg.LogError, "error log file")
	f.StringVar(&cfg.MetricsListen, "metrics-listen", cfg.MetricsListen, "prometheus metrics address (empty = disabled)")
	f.BoolVar(&noBlacklist, "no-blacklist", false, "fragment every connection")
	f.BoolVar(&autoBlacklist, "autoblacklist", false, "learn blocked domains by probing them")
	f.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, "suppress terminal output")
	f.BoolVar(&install, "install", false, "register the proxy to start at login")
	f.BoolVar(&uninstall, "uninstall", false, "remove the login registration")

	cmd.MarkFlagsMutuallyExclusive("blacklist", "no-blacklist", "autoblacklist")
	cmd.MarkFlagsMutuallyExclusive("install", "uninstall")

	return cmd
}

func runAutostart(install bool) error {
	if install {
		if err := autostart.Install(); err != nil {
			return err
		}
		ui.LogStatus("success", "Added to autostart")
		return nil
	}
	if err := autostart.Uninstall(); err != nil {
		return err
	}
	ui.LogStatus("success", "Removed from autostart")
	return nil
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogAccess, cfg.LogError)
	if err != nil {
		return err
	}
	defer logger.Close()

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	if auto, ok := engine.(*blacklist.AutoList); ok {
		defer auto.Close()
	}

	var fragmenter fragment.Fragmenter
	switch cfg.Fragment {
	case config.StrategySNI:
		fragmenter = fragment.SNI{}
	default:
		fragmenter = fragment.NewRandom()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !cfg.Quiet {
		ui.EmitBanner(version, tagline)
		ui.LogStatus("info", "Proxy is running on "+cfg.Addr())
		if fl, ok := engine.(*blacklist.FileList); ok {
			ui.LogStatus("info", fmt.Sprintf("Blacklist contains %d domains", fl.Len()))
		}
		if cfg.Mode == config.ModeAuto {
			ui.LogStatus("info", "Auto-learning blocked domains into "+cfg.Blacklist)
		}
		if cfg.LogError != "" {
			ui.LogStatus("info", "Errors are logged to "+cfg.LogError)
		}
		ui.LogStatus("info", "To stop the proxy, press Ctrl+C")
		go notifyUpdate()
	}

	if cfg.MetricsListen != "" {
		metrics := proxy.NewMetricsServer(cfg.MetricsListen)
		metrics.Start()
		go func() {
			<-ctx.Done()
			metrics.Shutdown(context.Background())
		}()
		if !cfg.Quiet {
			ui.LogStatus("info", "Metrics: http://"+cfg.MetricsListen+"/metrics")
		}
	}

	srv := proxy.NewServer(cfg, engine, fragmenter, logger)
	if !cfg.Quiet {
		srv.OnSample = func(s proxy.Snapshot) {
			ui.RenderStatsLine(s.Total, s.Allowed, s.Blocked, s.BytesIn, s.BytesOut, s.RateIn, s.RateOut)
		}
	}

	if err := srv.Start(ctx); err != nil {
		ui.LogStatus("error", err.Error())
		return err
	}
	if !cfg.Quiet {
		fmt.Println("\nProxy exited gracefully")
	}
	return nil
}

func buildEngine(cfg *config.Config) (blacklist.Engine, error) {
	switch cfg.Mode {
	case config.ModeOff:
		return blacklist.Passthrough{}, nil
	case config.ModeAuto:
		return blacklist.NewAuto(cfg.Blacklist)
	default:
		return blacklist.LoadFile(cfg.Blacklist, cfg.Matching)
	}
}

// notifyUpdate surfaces a newer release if the lookup answers quickly;
// a slow or failed lookup is dropped without blocking startup.
func notifyUpdate() {
	type result struct {
		latest string
		newer  bool
	}
	ch := make(chan result, 1)
	go func() {
		latest, newer, err := update.Check(version)
		if err == nil {
			ch <- result{latest, newer}
		}
	}()
	select {
	case r := <-ch:
		if r.newer {
			ui.LogStatus("warning", "A newer release "+r.latest+" is available")
		}
	case <-time.After(2 * time.Second):
	}
}
