// Package config provides 12-factor configuration for the editor client and
// the reference workspace server.
//
// Values are resolved in three layers: built-in defaults (Default), an
// optional TOML file named by EDITOR_CONFIG, and environment variables.
//
// Configuration Sections:
//   - Workspace: service URL and the user/sandbox identity of the channel
//   - Channel: timeouts, retry count, reconnect backoff, outbound limits
//   - Editor: shortcut chords, generate zone height, layout directory
//   - Server: reference workspace server listen address and seeding
//   - Logging, Metrics, RateLimit
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(cfg.Workspace.URL)
//
// Environment Variables:
//   - WORKSPACE_URL, USER_ID, SANDBOX_ID
//   - REQUEST_TIMEOUT, REQUEST_RETRIES, RECONNECT, RECONNECT_MIN, RECONNECT_MAX
//   - EDITOR_SAVE_KEY, EDITOR_GENERATE_KEY, EDITOR_ZONE_HEIGHT, EDITOR_LAYOUT_DIR
//   - PORT, HOST, SEED_DIR, LOG_LEVEL, LOG_DEV, METRICS_ADDR
package config
