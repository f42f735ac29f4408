// Package cli provides the Kenala command-line client.
//
// It wires configuration, the local store, the API client and the services
// into an App, and exposes them as cobra commands. Every command works
// offline: reads come from the local store, and journals created without a
// connection are kept with a provisional id until `kenala sync` or the
// daemon sends them.
//
// Key features:
//   - login / logout
//   - journal list, show, create, update and delete (list can --watch)
//   - sync (reconcile pending entries, then refresh from the server)
//   - notifications inbox fed by `notifications ingest` or NATS
//   - track: stream "lat,lng" lines to the live tracking socket
//   - daemon: online watcher, push subscriber, /metrics and /healthz
package cli
