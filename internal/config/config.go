package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

// Config holds all application configuration. It is immutable for the
// process lifetime once New returns.
type Config struct {
	// Scan loop
	ScanInterval        time.Duration
	ScanTimeout         time.Duration
	PresenceTimeout     time.Duration
	WeakPresenceTimeout time.Duration
	WeakRSSI            int
	MinRSSI             int

	// Filtering
	ExcludeMACPrefixes []string

	// Radio
	Adapter string
	Btmgmt  string

	// Event log
	LogPath         string
	LogObservations bool

	// Metadata files
	NamesFile  string
	OUIDBFile  string
	OUIPreload bool

	// Network settings
	HTTPListen string

	// MQTT event sink
	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		ScanInterval:        10 * time.Second,
		PresenceTimeout:     30 * time.Second,
		WeakPresenceTimeout: 60 * time.Second,
		WeakRSSI:            -90,
		MinRSSI:             -100,
		Adapter:             "hci0",
		Btmgmt:              "/usr/bin/btmgmt",
		LogPath:             "./btwatch.log",
		LogObservations:     false,
		OUIPreload:          false,
		MQTTTopic:           "btwatch/events",
		MQTTClientID:        "btwatch",
	}
}

// LoadFromFile loads configuration from INI file
func (c *Config) LoadFromFile(filename string) error {
	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, filename)
	if err != nil {
		log.Warn().Err(err).Str("file", filename).Msg("Skipping config file")
		return err
	}

	section := cfg.Section("")
	c.ScanInterval = secondsKey(section, "scaninterval", c.ScanInterval)
	c.ScanTimeout = secondsKey(section, "scantimeout", c.ScanTimeout)
	c.PresenceTimeout = secondsKey(section, "presencetimeout", c.PresenceTimeout)
	c.WeakPresenceTimeout = secondsKey(section, "weakpresencetimeout", c.WeakPresenceTimeout)
	c.WeakRSSI = section.Key("weakrssi").MustInt(c.WeakRSSI)
	c.MinRSSI = section.Key("minrssi").MustInt(c.MinRSSI)
	if v := section.Key("excludemacprefixes").String(); v != "" {
		c.ExcludeMACPrefixes = splitList(v)
	}
	c.Adapter = section.Key("adapter").MustString(c.Adapter)
	c.Btmgmt = section.Key("btmgmt").MustString(c.Btmgmt)
	c.LogPath = section.Key("logpath").MustString(c.LogPath)
	c.LogObservations = section.Key("logobservations").MustBool(c.LogObservations)
	c.NamesFile = section.Key("namesfile").MustString(c.NamesFile)
	c.OUIDBFile = section.Key("ouidbfile").MustString(c.OUIDBFile)
	c.OUIPreload = section.Key("ouipreload").MustBool(c.OUIPreload)
	c.HTTPListen = section.Key("httplisten").MustString(c.HTTPListen)
	c.MQTTBroker = section.Key("mqttbroker").MustString(c.MQTTBroker)
	c.MQTTTopic = section.Key("mqtttopic").MustString(c.MQTTTopic)
	c.MQTTClientID = section.Key("mqttclientid").MustString(c.MQTTClientID)
	c.MQTTUsername = section.Key("mqttusername").MustString(c.MQTTUsername)
	c.MQTTPassword = section.Key("mqttpassword").MustString(c.MQTTPassword)

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("SCANINTERVAL"); v != "" {
		c.ScanInterval = envSeconds(v, c.ScanInterval)
	}
	if v := os.Getenv("SCANTIMEOUT"); v != "" {
		c.ScanTimeout = envSeconds(v, c.ScanTimeout)
	}
	if v := os.Getenv("PRESENCETIMEOUT"); v != "" {
		c.PresenceTimeout = envSeconds(v, c.PresenceTimeout)
	}
	if v := os.Getenv("WEAKPRESENCETIMEOUT"); v != "" {
		c.WeakPresenceTimeout = envSeconds(v, c.WeakPresenceTimeout)
	}
	if v := os.Getenv("WEAKRSSI"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.WeakRSSI = n
		}
	}
	if v := os.Getenv("MINRSSI"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MinRSSI = n
		}
	}
	if v := os.Getenv("EXCLUDEMACPREFIXES"); v != "" {
		c.ExcludeMACPrefixes = splitList(v)
	}
	if v := os.Getenv("ADAPTER"); v != "" {
		c.Adapter = v
	}
	if v := os.Getenv("BTMGMT"); v != "" {
		c.Btmgmt = v
	}
	if v := os.Getenv("LOGPATH"); v != "" {
		c.LogPath = v
	}
	if v := os.Getenv("LOGOBSERVATIONS"); v != "" {
		c.LogObservations, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("NAMESFILE"); v != "" {
		c.NamesFile = v
	}
	if v := os.Getenv("OUIDBFILE"); v != "" {
		c.OUIDBFile = v
	}
	if v := os.Getenv("OUIPRELOAD"); v != "" {
		c.OUIPreload, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("HTTPLISTEN"); v != "" {
		c.HTTPListen = v
	}
	if v := os.Getenv("MQTTBROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("MQTTTOPIC"); v != "" {
		c.MQTTTopic = v
	}
	if v := os.Getenv("MQTTCLIENTID"); v != "" {
		c.MQTTClientID = v
	}
	if v := os.Getenv("MQTTUSERNAME"); v != "" {
		c.MQTTUsername = v
	}
	if v := os.Getenv("MQTTPASSWORD"); v != "" {
		c.MQTTPassword = v
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.ScanInterval <= 0 {
		return fmt.Errorf("scaninterval must be positive, got %s", c.ScanInterval)
	}
	if c.PresenceTimeout <= 0 {
		return fmt.Errorf("presencetimeout must be positive, got %s", c.PresenceTimeout)
	}
	if c.ScanTimeout < 0 {
		return fmt.Errorf("scantimeout must not be negative, got %s", c.ScanTimeout)
	}
	if c.LogPath == "" {
		return fmt.Errorf("logpath must not be empty")
	}
	if c.PresenceTimeout <= c.ScanInterval {
		log.Warn().
			Dur("presencetimeout", c.PresenceTimeout).
			Dur("scaninterval", c.ScanInterval).
			Msg("Presence timeout does not exceed scan interval; devices may flap")
	}
	return nil
}

// New creates a new configuration instance
func New(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	// Load from file first
	cfg.LoadFromFile(configFile)

	// Override with environment variables
	cfg.LoadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func secondsKey(section *ini.Section, name string, def time.Duration) time.Duration {
	secs := section.Key(name).MustFloat64(def.Seconds())
	return time.Duration(secs * float64(time.Second))
}

func envSeconds(v string, def time.Duration) time.Duration {
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return time.Duration(secs * float64(time.Second))
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
