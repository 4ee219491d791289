// Command rlnd serves the RLN membership registry over HTTP.
//
// The daemon owns the membership tree and serializes all mutation, so
// clients and verifiers share one consistent view of the member set and
// its Merkle root.
//
// # Configuration File
//
// Create a YAML file with registry settings:
//
//	listen_addr: ":8080"
//	allow_cors: false
//	registry:
//	  depth: 20
//	  zero_value: "0"
//
// # Usage
//
//	go run ./cmd/rlnd --config=rlnd.yaml
//	go run ./cmd/rlnd --addr=:8080 --depth=20
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dvlprsh/go-rln/services"
)

// Config is the YAML file layout for rlnd.
type Config struct {
	ListenAddr  string                  `yaml:"listen_addr"`
	AllowCORS   bool                    `yaml:"allow_cors"`
	EnablePprof bool                    `yaml:"enable_pprof"`
	Registry    services.RegistryConfig `yaml:"registry"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr: ":8080",
		Registry:   services.RegistryConfig{Depth: 20},
	}
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		addr       = flag.String("addr", "", "HTTP listen address (overrides config)")
		depth      = flag.Int("depth", 0, "Membership tree depth in [16, 32] (overrides config)")
		allowCORS  = flag.Bool("cors", false, "Allow cross-origin requests")
		pprof      = flag.Bool("pprof", false, "Enable pprof debug API")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			log.Error("Error loading config", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *depth != 0 {
		cfg.Registry.Depth = *depth
	}
	if *allowCORS {
		cfg.AllowCORS = true
	}
	if *pprof {
		cfg.EnablePprof = true
	}

	registrySvc := services.NewRegistryService(cfg.Registry, log)
	// The tree's zero-hash spine is computed here; the service answers
	// 503 until this completes.
	if err := registrySvc.Init(); err != nil {
		log.Error("Registry initialization failed", "err", err)
		os.Exit(1)
	}

	srv := services.NewServer(&services.ServerConfig{
		ListenAddr:               cfg.ListenAddr,
		AllowCORS:                cfg.AllowCORS,
		EnablePprof:              cfg.EnablePprof,
		Log:                      log,
		DrainDuration:            5 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              10 * time.Second,
		WriteTimeout:             10 * time.Second,
	}, registrySvc)

	srv.RunInBackground()
	log.Info("rlnd started", "addr", cfg.ListenAddr, "depth", cfg.Registry.Depth)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down")
	srv.Shutdown()
}
