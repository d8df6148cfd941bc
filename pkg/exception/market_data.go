package exception

import "errors"

var (
	ErrUnsupportedPlatform = errors.New("market data: unsupported platform")
	ErrInvalidFeedRequest  = errors.New("market data: invalid feed request")
	ErrFeatureUnavailable  = errors.New("market data: feature unavailable")
	ErrSubscriberBacklog   = errors.New("relay: subscriber backlog exceeded")
	ErrSubscriberClosed    = errors.New("relay: subscriber closed")
)
