// Package api exposes the notification store over HTTP.
//
//	POST /notifications               create, 201 {data: Notification}
//	GET  /notifications/{userId}      list newest first, ?limit=N (default 50)
//	PUT  /notifications/{id}/read     mark read, 404 for unknown ids
//
// Every route requires an access token decoded by package identity and is
// then counted against the rate limiter, keyed by user id and falling back
// to the client address. The router is meant to be mounted under /api.
package api
