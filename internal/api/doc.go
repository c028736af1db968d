// Package api is the HTTP client for the deckhand backend.
//
// Every route answers with an envelope:
//
//	{"success": true, "message": "...", "data": {...}}
//
// Client.do unwraps it. Failures come back as *Error with a Kind:
// transport errors, non-2xx statuses (carrying the backend's detail
// message), undecodable bodies, and replies with success=false. Callers
// branch with IsKind rather than string matching.
//
// Types mirror the backend's JSON. Status strings are normalized on the
// way in by ParseBotStatus and ParseDeviceStatus, so adb's "device" and
// the backend's "starting" never leak into the stores.
package api
