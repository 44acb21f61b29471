// Package app wires configuration, local stores, the API client, the
// dashboard poller and the UI into the Addressable terminal client.
//
// # Overview
//
// Open is the composition root shared by the TUI and the CLI commands:
//
//  1. Preload an optional .env file, then read ~/.config/addressable/config.toml
//  2. Open the log file (or the writer the caller supplies)
//  3. Open the encrypted keychain and the analytics event store under state_dir
//  4. Build the API client with an instrumented transport
//  5. Build the session manager over the client and keychain
//
// Run opens the services, optionally starts the metrics server, starts the
// poller when a user is already signed in, and blocks in the TUI.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> Open()             config, logger, keychain, analytics, client
//	       ├─────> metrics.Server     optional /metrics endpoint
//	       ├─────> pollControl.Start  only when signed in
//	       └─────> ui.Run()           (blocks)
//
//	Poller loop:
//	┌─────────────────────────────────────────┐
//	│ Poller.Start() goroutine                │
//	│  ├─> views.FetchDashboard()             │
//	│  ├─> store.Update()                     │
//	│  ├─> metrics.ObservePoll()              │
//	│  └─> wait interval * 2^failures (<=30s) │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// The first poll runs immediately. After a failure the wait doubles per
// consecutive failure up to 30 seconds, and the snapshot reports offline
// after two failures in a row. A 401 stops the loop and clears the keychain
// through the session manager; the UI then returns to the login screen and
// restarts polling after the next sign-in.
package app
