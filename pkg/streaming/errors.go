package streaming

import "errors"

var (
	ErrConnection        = errors.New("streaming: connection error")
	ErrNotConnected      = errors.New("streaming: not connected")
	ErrAlreadySubscribed = errors.New("streaming: handler already subscribed")
	ErrNoSubscription    = errors.New("streaming: no subscription")
	ErrNoTopics          = errors.New("streaming: at least one topic is required")
	ErrNilHandler        = errors.New("streaming: handler is nil")
	ErrAlreadyRunning    = errors.New("streaming: already running")
	ErrMalformedEnvelope = errors.New("streaming: malformed envelope")
	ErrUnknownDriver     = errors.New("streaming: unknown driver")
	ErrNoBrokers         = errors.New("streaming: no brokers configured")
	ErrDriverClosed      = errors.New("streaming: driver closed")
)
