// Package fanout pushes persisted notifications and system alerts to live
// client sessions.
//
// A Hub keeps an explicit registry of sessions. A session is registered on
// connect, bound to at most one channel named user_<userID> on join and
// removed on disconnect. Deliver targets one channel; Broadcast targets every
// registered session. Sends never block: a session whose outbox is full is
// closed and removed.
//
// Transports live in the ws (websocket) and sse (Datastar server-sent events)
// subpackages.
package fanout
