// Package notification holds the notification model and its persistence.
//
// Store is the storage contract: Create, Get, ListByUser and MarkRead, each
// atomic. MemoryStore keeps records in process and PostgresStore keeps them
// in the notifications table (see Migrations). Service sits on top of a Store
// and hands every created record to a Deliverer for realtime fan-out.
//
//	store := notification.NewMemoryStore()
//	svc := notification.NewService(store,
//		notification.WithDeliverer(hub),
//		notification.WithLogger(log),
//	)
//
//	n, err := svc.Create(ctx, notification.CreateInput{
//		UserID:  "42",
//		Type:    notification.TypeWelcome,
//		Title:   "Welcome!",
//		Message: "Your account is ready.",
//	})
//
// Invalid input yields a *ValidationError (errors.Is(err, ErrInvalidInput));
// unknown ids yield ErrNotFound.
package notification
