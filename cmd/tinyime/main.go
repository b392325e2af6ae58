// Copyright 2025 The tinyime Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main runs the tinyime composition engine as an IPC server or as a
CLI [DBG] application.

tinyime turns keystrokes into composing text and a ranked list of
candidates drawn from a pinyin frequency corpus, a Latin word frequency
map and a spelling fallback table. The dictionary is built in the
background; sessions start right away and only see the literal
composition until it is published.

# Usage

Start the server with default settings:

	tinyime

Use a custom data directory and enable debug mode:

	tinyime -data /path/to/data -d

Run in CLI mode for interactive testing:

	tinyime -c

The data directory holds pinyin_corpus.txt, words.json and
alternatives.json. Any of them may be missing; the engine runs with what
it can read.

# Configuration

Runtime configuration is read from a TOML file, created with defaults on
first run:

	[engine]
	max_candidates = 20
	max_visible = 12
	caps_lock_window_ms = 800

	[dict]
	data_dir = "data"
	script_marker = "0"

# IPC Protocol

The server reads msgpack key events from stdin and writes one msgpack
response per event to stdout. Logs go to stderr. See package server.

	{"id": "1", "k": "char", "c": "n"}
	{"id": "1", "p": "n", "s": ["n", "你", "呢"], "h": true, "r": true}

# Command Line Flags

	-data string
	    Directory containing the dictionary resources (default from config)
	-config string
	    Path to a config file
	-marker string
	    Script marker of the corpus records to load (default from config)
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-reset-config
	    Rewrite the config file with defaults and exit
	-version
	    Show current version
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/tinyime/internal/cli"
	"github.com/bastiangx/tinyime/internal/logger"
	"github.com/bastiangx/tinyime/internal/utils"
	"github.com/bastiangx/tinyime/pkg/config"
	"github.com/bastiangx/tinyime/pkg/dictionary"
	"github.com/bastiangx/tinyime/pkg/ime"
	"github.com/bastiangx/tinyime/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "tinyime"
	gh      = "https://github.com/bastiangx/tinyime"
)

// sigHandler cancels ctx on the first signal and exits on the second.
func sigHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cancel()
		<-c
		os.Exit(1)
	}()
}

// main only manages the flow; server and CLI live in their packages.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	dataDir := flag.String("data", "", "Directory containing the dictionary resources")
	configPath := flag.String("config", "", "Path to a config file")
	marker := flag.String("marker", "", "Script marker of the corpus records to load")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	resetConfig := flag.Bool("reset-config", false, "Rewrite the config file with defaults and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.Setup("warn", *debugMode)

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Warnf("Failed to initialize path resolver: %v", err)
	}

	if *resetConfig {
		path := *configPath
		if path == "" && pathResolver != nil {
			path = pathResolver.GetConfigPath(config.FileName)
		}
		if path == "" {
			log.Fatal("No config location available")
		}
		if err := config.RebuildConfigFile(path); err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Config reset: %s\n", path)
		return
	}

	cfg, usedConfig := config.LoadConfigWithPriority(*configPath, pathResolver)
	if !*debugMode {
		logger.Setup(cfg.Server.LogLevel, false)
	}
	log.Debugf("Using config: %s", config.GetActiveConfigPath(usedConfig))

	if *marker != "" {
		cfg.Dict.ScriptMarker = *marker
	}
	if *dataDir != "" {
		cfg.Dict.DataDir = *dataDir
	}

	resolvedDataDir := cfg.Dict.DataDir
	if pathResolver != nil {
		resolvedDataDir = pathResolver.GetDataDir(cfg.Dict.DataDir, cfg.Dict.Resources()...)
	}
	log.Debugf("Using data dir at: %s", resolvedDataDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigHandler(cancel)

	engine := ime.New(cfg, dictionary.FSSource{FS: os.DirFS(resolvedDataDir)})
	engine.Start(ctx)
	defer engine.Stop()

	// CLI is mainly used for testing and dbg purposes.
	if *cliMode {
		log.SetReportTimestamp(false)
		go func() {
			<-ctx.Done()
			os.Exit(0)
		}()
		inputHandler := cli.NewInputHandler(engine, cfg.CLI, os.Stdin, os.Stdout)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	showStartupInfo(resolvedDataDir)

	srv := server.NewServer(engine, os.Stdin, os.Stdout)
	go func() {
		<-ctx.Done()
		engine.Stop()
		os.Exit(0)
	}()
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func printVersion() {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	l.SetStyles(styles)

	l.Print("")
	l.Print("[ tinyime ] pinyin and word composition engine")
	l.Print("", "version", Version)
	l.Print("")
	l.Print("use -h or --help to see available options")
	l.Print("Github Repo", "gh", gh)
}

// showStartupInfo prints basic info to stderr; stdout carries the IPC stream.
func showStartupInfo(dataDir string) {
	l := log.NewWithOptions(os.Stderr, log.Options{Level: log.InfoLevel})
	l.Infof("%s %s", AppName, Version)
	l.Infof("Process ID: [ %d ]", os.Getpid())
	l.Infof("data dir: ( %s )", dataDir)
	l.Info("status: loading dictionary in background")
}
