package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned by Submit before Start or after Stop
	ErrSchedulerNotRunning = errors.New("sync scheduler is not running")
	// ErrJobQueueFull is returned when QueueSize jobs are already pending
	ErrJobQueueFull = errors.New("sync job queue is full")
	// ErrJobNotFound is returned for IDs that were never submitted or left the history
	ErrJobNotFound = errors.New("sync job not found")
	// ErrInvalidConfig is returned for invalid scheduler or lock settings
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
