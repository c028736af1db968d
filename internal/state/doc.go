// Package state holds deckhand's client-side view of the backend.
//
// # Overview
//
// Three stores mirror the backend: BotStore for the bot session,
// DeviceStore for Android devices, and SystemStore for host preferences,
// performance, and notifications. Each store is fed from two directions:
//
//	action (Start, Connect, ...) ──> REST call ──> confirmed? ──> mutate
//	event stream (status_update, ...)  ────────────────────────> mutate
//
// and every mutation ends in a published snapshot.
//
// # Actions
//
// Actions are pessimistic. Nothing changes locally until the backend
// confirms; a failed call leaves domain data untouched, sets the store's
// Error field, and appends exactly one error entry to its log. A response
// carrying success=false counts as a failure. A successful action clears
// Error and appends one info entry. Queries (RefreshStatus, Scan) log only
// on failure.
//
// Partial updates (UpdateConfig, UpdatePreferences) are validated against
// the current value before any request goes out, so an unknown key never
// reaches the backend. After the backend accepts, the patch is merged again
// onto whatever the live value is by then, so events that arrived during
// the call are not lost.
//
// # Events
//
// Each store owns a stream.Stream. Decoding is two-step: the envelope type
// picks a payload struct, then a fold applies it. Every store shares the log
// and error variants, which add entries, and the heartbeat and
// acknowledgement frames (ping, pong, connection, subscription_confirmed),
// which are dropped silently. Unknown types are logged at debug and dropped;
// payloads that fail to decode add one error entry. Events carry
// absolute values, so applying them after or before the matching action
// confirmation converges on the same state.
//
// # Concurrency Model
//
// A store has two locks. mu guards the data and is never held across I/O.
// pubMu orders publications, so subscribers see snapshots in the order the
// mutations happened even when the stream goroutine and an action race.
// Subscribers run outside mu; they must not call back into a mutating store
// method synchronously.
//
// Snapshots are deep copies: slices, maps, and pointer fields are cloned, so
// a caller can hold or modify one without affecting the store. Each
// subscriber receives its own copy of a publication.
//
// # Bridge Emissions
//
// Some transitions are announced to the UI through the Emitter (in practice
// a bridge.Bus): bot-status-changed, device-connected, device-disconnected,
// theme-changed, and notification. Emissions are queued while mu is held
// and delivered after the snapshot is published.
//
// # Logs
//
// Every store keeps a bounded newest-first logbuf.Buffer. Each entry is also
// written to the store's logrus logger at the matching level, which is how
// `deckhand logs` can show the same history after the dashboard exits.
package state
