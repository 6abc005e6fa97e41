package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"btwatch/internal/config"
	"btwatch/internal/names"
	"btwatch/internal/oui"
	"btwatch/internal/scan"
	"btwatch/internal/sink"
	"btwatch/internal/track"
	"btwatch/internal/web"
)

var (
	sha1ver   string
	buildTime string
)

func main() {
	configFile := flag.String("config", "btwatch.ini", "path to INI configuration")
	simulate := flag.Bool("simulate", false, "use the simulated scan source")
	simSeed := flag.Int64("seed", 0, "seed for the simulated scan source")
	flag.Parse()

	// Operational logging goes to stderr; stdout is reserved for the
	// KIND:MAC:NAME:RSSI event lines.
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	log.Info().Str("build", sha1ver).Str("time", buildTime).Msg("btwatch starting")

	cfg, err := config.New(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Assemble the event sinks. Losing one channel must not stop
	// presence detection, so failures here degrade rather than abort.
	recorder := sink.NewRecorder()
	sinks := []sink.Sink{sink.NewStdout(), recorder}

	fileSink, err := sink.NewFile(cfg.LogPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.LogPath).Msg("Event log unavailable, continuing without it")
	} else {
		sinks = append(sinks, fileSink)
	}

	if cfg.MQTTBroker != "" {
		mqttSink, err := sink.NewMQTT(sink.MQTTConfig{
			Broker:   cfg.MQTTBroker,
			Topic:    cfg.MQTTTopic,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, log)
		if err != nil {
			log.Error().Err(err).Msg("MQTT sink unavailable, continuing without it")
		} else {
			sinks = append(sinks, mqttSink)
		}
	}

	eventSink := sink.NewMulti(log, sinks...)
	defer eventSink.Close()

	var source scan.Source
	if *simulate {
		seed := *simSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		log.Info().Int64("seed", seed).Msg("Using simulated scan source")
		source = scan.NewSimulated(seed)
	} else {
		source = scan.NewLive(cfg.Btmgmt, cfg.Adapter, scanTimeout(cfg), log)
	}

	engine := track.New(cfg, source, eventSink, log)

	if cfg.NamesFile != "" {
		manager := names.NewManager(cfg.NamesFile, log)
		if err := manager.Load(); err != nil {
			log.Warn().Err(err).Msg("Failed to load device names")
		}
		if err := manager.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to watch device names file")
		} else {
			defer manager.Stop()
		}
		engine.Names = manager
	}

	if cfg.OUIDBFile != "" {
		db, err := oui.NewDatabase(cfg.OUIDBFile, cfg.OUIPreload, log)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to open OUI database")
		} else {
			if err := db.Start(); err != nil {
				log.Warn().Err(err).Msg("Failed to watch OUI database")
			} else {
				defer db.Stop()
			}
			engine.OUI = db
		}
	}

	engine.Start()
	defer engine.Stop()

	if cfg.HTTPListen != "" {
		server := web.NewServer(cfg, engine, recorder, log)
		go func() {
			log.Info().Str("listen", cfg.HTTPListen).Msg("Starting HTTP server")
			if err := server.Start(); err != nil {
				log.Error().Err(err).Msg("HTTP server failed")
			}
		}()
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down")
}

// scanTimeout mirrors the engine's bound so the live source finishes before
// the cycle deadline.
func scanTimeout(cfg *config.Config) time.Duration {
	if cfg.ScanTimeout > 0 {
		return cfg.ScanTimeout
	}
	return cfg.ScanInterval * 9 / 10
}
