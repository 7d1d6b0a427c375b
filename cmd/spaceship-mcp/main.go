// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/BartWaardenburg/spaceship-mcp/client"
	"github.com/BartWaardenburg/spaceship-mcp/core"
	_ "github.com/BartWaardenburg/spaceship-mcp/registry/cloudflare"
	_ "github.com/BartWaardenburg/spaceship-mcp/registry/file"
	"github.com/joho/godotenv"
)

const version = "0.4.0"

var (
	apiKey    = flag.String("api-key", "", "Spaceship API key.")
	apiSecret = flag.String("api-secret", "", "Spaceship API secret.")
	baseURL   = flag.String("base-url", client.DefaultBaseURL, "Spaceship API base URL.")

	cacheTTL   = flag.Int("cache-ttl", 120, "Cache lifetime of read responses in seconds, 0 disables caching.")
	maxRetries = flag.Int("max-retries", client.DefaultMaxRetries, "Retries of a throttled request.")
	maxRate    = flag.Int("rate", 0, "Limit outbound requests per second, 0 means no limit.")

	toolsets     = flag.String("toolsets", "", "Comma separated toolsets to expose, empty for all: "+strings.Join(ToolsetNames, ","))
	pollInterval = flag.Int("poll-interval", 300, "Seconds between domain list polls feeding resource notifications, 0 disables.")

	httpListen = flag.String("http-listen", "", "Serve the REST API on this address instead of MCP over stdio.")
	httpPrefix = flag.String("http-prefix", "/", "HTTP REST API prefix.")

	debug = flag.Bool("debug", false, "Print debug output to stderr.")

	signalC = make(chan os.Signal, 1)
)

// envFlags maps flags to the environment variables providing their defaults.
var envFlags = map[string]string{
	"api-key":       "SPACESHIP_API_KEY",
	"api-secret":    "SPACESHIP_API_SECRET",
	"base-url":      "SPACESHIP_BASE_URL",
	"cache-ttl":     "SPACESHIP_CACHE_TTL",
	"max-retries":   "SPACESHIP_MAX_RETRIES",
	"rate":          "SPACESHIP_RATE_LIMIT",
	"toolsets":      "SPACESHIP_TOOLSETS",
	"poll-interval": "SPACESHIP_POLL_INTERVAL",
	"http-listen":   "SPACESHIP_HTTP_LISTEN",
}

func loadEnvDefaults(fs *flag.FlagSet) error {
	for name, env := range envFlags {
		v, ok := os.LookupEnv(env)
		if !ok || v == "" {
			continue
		}
		err := fs.Set(name, v)
		if err != nil {
			return fmt.Errorf("%s: %v", env, err)
		}
	}
	return nil
}

// Stdout carries the MCP stream, everything else goes to stderr.
var logger = log.New(os.Stderr, "spaceship-mcp: ", log.LstdFlags)

func main() {
	// A missing .env file is normal.
	_ = godotenv.Load()

	err := loadEnvDefaults(flag.CommandLine)
	if err != nil {
		logger.Fatalln(err)
	}
	flag.Parse()

	signal.Notify(signalC, syscall.SIGINT, syscall.SIGTERM)

	err = run()
	if err != nil {
		logger.Fatalln(err)
	}
}

func run() error {
	if *apiKey == "" || *apiSecret == "" {
		return fmt.Errorf("require [api-key, api-secret]: set SPACESHIP_API_KEY and SPACESHIP_API_SECRET")
	}

	enabled, err := ParseToolsets(*toolsets)
	if err != nil {
		return err
	}

	var debugLog io.Writer
	if *debug {
		debugLog = os.Stderr
	}

	ttl := time.Duration(*cacheTTL) * time.Second
	app := &App{
		Client: client.New(client.NewHTTPTransport(*baseURL, *apiKey, *apiSecret), core.NewCache(ttl), client.Options{
			CacheTTL:          ttl,
			MaxRetries:        *maxRetries,
			RequestsPerSecond: int32(*maxRate), // #nosec G115
			LogWriter:         debugLog,
		}),
		Logger: logger,
	}
	app.RegisterSources()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-signalC
		cancel()
	}()

	if *httpListen != "" {
		logger.Println("Listen and serve on http://" + path.Join(*httpListen, *httpPrefix) + "/")
		return Serve(ctx, app, *httpListen, *httpPrefix)
	}

	return ServeMCP(ctx, app, enabled, time.Duration(*pollInterval)*time.Second)
}
