// Package stream keeps one WebSocket event stream alive.
//
// A Stream dials its URL, decodes each text frame into a Message, and hands
// it to a Handler. State changes (Connecting, Open, Closed, Errored) go to
// the same Handler so the owning store can log them.
//
// Reconnection uses a fixed delay. When a live connection drops, exactly one
// reconnect is scheduled; Close cancels it and nothing is rescheduled after
// that. Each connect attempt carries a generation number, and callbacks from
// a superseded attempt are ignored, so a slow read loop from an old
// connection cannot flip the state of a new one.
//
// Frames that fail to decode are reported through HandleDecodeError and the
// connection stays up.
package stream
