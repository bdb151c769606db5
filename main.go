package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/horizons/config"
)

func main() {
	configPath := flag.String("config", "", "config file (default config.yaml when present)")
	node := flag.String("node", "", "start at this node id instead of the saved position")
	debug := flag.Bool("debug", false, "enable debug mode")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	baseURL := flag.String("base-url", "", "fetch node documents from {base-url}/narratives/{id}.json")
	watch := flag.Bool("watch", false, "reload node documents when they change on disk")
	backend := flag.String("backend", "", "force the stream or buffered audio backend")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *node != "" {
		cfg.StartNode = *node
	}
	if *debug {
		cfg.Debug = true
	}
	if *baseURL != "" {
		cfg.Narratives.BaseURL = *baseURL
	}
	if *watch {
		cfg.Narratives.Watch = true
	}
	if *backend != "" {
		cfg.Audio.ForceBackend = *backend
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.Reader.Width, cfg.Reader.Height)
	ebiten.SetWindowTitle("horizons")

	game, err := NewGame(cfg, *node != "")
	if err != nil {
		log.Fatal(err)
	}

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
	if err := game.Close(); err != nil {
		log.Printf("horizons: close: %v", err)
	}
}
