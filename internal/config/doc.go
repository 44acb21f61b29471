// Package config loads Addressable's client configuration.
//
// # Overview
//
// Configuration decides which Addressable environment the client talks to and
// where local state lives. Everything has a default, so a fresh install works
// without a config file.
//
// # Resolution Order
//
//  1. Defaults (live environment, https, ~/.local/share/addressable)
//  2. ~/.config/addressable/config.toml, or the path given to Load
//  3. ADDRESSABLE_ENV, ADDRESSABLE_HOST, ADDRESSABLE_SCHEME and
//     ADDRESSABLE_STATE_DIR from the process environment
//
// LoadDotEnv can seed the process environment from a .env file before Load
// runs. Variables already exported are left alone.
//
// # Example
//
//	environment = "sandbox"
//	state_dir = "~/.addressable"
//	poll_interval = "30s"
//	request_timeout = "10s"
//	metrics_addr = "127.0.0.1:9464"
//
// An explicit host takes precedence over the environment's host, which is how
// the client is pointed at a local mock server:
//
//	host = "127.0.0.1:8089"
//	scheme = "http"
//
// # Paths
//
// Path values accept a leading ~ and are made absolute. The keychain and
// analytics databases and the default log file sit inside state_dir.
package config
