package ratelimiter

import "time"

// Limiter reports whether a request for key may proceed and, when it may
// not, how long the caller should wait.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}
