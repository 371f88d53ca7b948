// Package cli provides the interactive VaultSync command-line client.
//
// It wires configuration, the local queue store, the upload transport, and
// an interactive REPL over the background sync worker. Typical flow: open
// the store, start the connectivity watcher, and execute user commands
// while worker events are printed as they arrive.
//
// Key features:
//   - Add files: encrypt with a passphrase and enqueue for upload
//   - Status: pending and failed entries with attempt counts
//   - Retry / Clear / Delete queue maintenance
//   - Sync on demand, on top of automatic connectivity-edge syncs
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL, and the sync package for details.
package cli
