package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-echobox/audio"
	"github.com/coreman2200/funtimes-echobox/config"
	"github.com/coreman2200/funtimes-echobox/console"
	"github.com/coreman2200/funtimes-echobox/dispatch"
	"github.com/coreman2200/funtimes-echobox/led"
	"github.com/coreman2200/funtimes-echobox/metrics"
)

func main() {
	var (
		configPath  = flag.String("config", "echobox.yaml", "path to echobox.yaml")
		sim         = flag.Bool("sim", false, "no hardware: simulated channel, leds on the terminal")
		shell       = flag.Bool("console", false, "interactive console instead of the buttons")
		metricsAddr = flag.String("metrics", "", "metrics listen address (overrides config)")
		writeConfig = flag.Bool("write-config", false, "write the default config to -config and exit")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	if *writeConfig {
		if err := config.Save(*configPath, config.Default()); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("write config")
		}
		log.Info().Str("path", *configPath).Msg("default config written")
		return
	}

	cfg, err := config.Load(*configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Warn().Str("path", *configPath).Msg("no config file; using defaults")
		cfg = config.Default()
	case err != nil:
		log.Fatal().Err(err).Msg("config")
	}
	if *sim {
		cfg.Channel.Driver = "sim"
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	zerolog.SetGlobalLevel(cfg.Level())

	if _, err := host.Init(); err != nil {
		if !*sim {
			log.Fatal().Err(err).Msg("host init")
		}
		log.Warn().Err(err).Msg("host init failed; simulating")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.NewMetrics(reg)

	b, err := openBoard(cfg, *sim, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("board")
	}
	defer b.Close()

	display := &led.Recorder{Display: b.display}
	engine := audio.NewEngine(b.channel, display,
		audio.WithLogger(log.Logger.With().Str("component", "audio").Logger()),
		audio.WithMetrics(m),
		audio.WithSaturation(cfg.Echo.Saturate),
	)
	session, err := dispatch.NewSession(engine, cfg.BufferLength, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("session")
	}
	log.Info().
		Int("samples", cfg.BufferLength).
		Dur("length", time.Duration(cfg.BufferLength)*time.Second/time.Duration(cfg.Codec.SampleRate)).
		Bool("saturate", cfg.Echo.Saturate).
		Msg("buffer ready")

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{
			Addr:         cfg.Metrics.Addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
		defer srv.Close()
	}

	if *shell || *sim {
		if *sim && !*shell {
			log.Info().Msg("no buttons when simulating; starting the console")
		}
		c := console.New(session, display, log.Logger)
		if err := c.Run(flag.Args()...); err != nil {
			log.Error().Err(err).Msg("console")
		}
		return
	}

	l := dispatch.NewLooper(b.buttons, session, cfg.Buttons.PollInterval(), log.Logger)
	l.Start(context.Background())
	log.Info().Msg("shutting down")
}
