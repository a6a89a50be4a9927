// Package dispatch turns backbone envelopes into notifications.
//
// Routing is a single table lookup keyed by (topic, eventType). Matching
// envelopes are rendered into a notification for the recipient found in the
// payload and handed to the notification service, which persists and then
// delivers it. Envelopes on system-alerts are handled separately: alerts that
// name affected users become one notification per user, all other alerts are
// broadcast to every live session without being stored.
//
// Unknown topics and unmapped event types are dropped and Handle returns nil.
package dispatch
