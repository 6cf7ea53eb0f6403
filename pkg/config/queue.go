package config

import "time"

// QueueConfig governs the worker pool's scheduling behavior.
type QueueConfig struct {
	WorkerCount             int           `yaml:"worker_count"`
	MaxConcurrentTasks      int           `yaml:"max_concurrent_tasks"`
	PollInterval            time.Duration `yaml:"poll_interval"`
	PollIntervalJitter      time.Duration `yaml:"poll_interval_jitter"`
	TaskTimeout             time.Duration `yaml:"task_timeout"`
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`
	OrphanDetectionInterval time.Duration `yaml:"orphan_detection_interval"`
	OrphanThreshold         time.Duration `yaml:"orphan_threshold"`
}

// DefaultQueueConfig returns the daemon's scheduling defaults: 5
// workers, a 30-minute orphan threshold, and a 5-minute scan cadence.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		WorkerCount:             5,
		MaxConcurrentTasks:      5,
		PollInterval:            1 * time.Second,
		PollIntervalJitter:      500 * time.Millisecond,
		TaskTimeout:             15 * time.Minute,
		GracefulShutdownTimeout: 15 * time.Minute,
		OrphanDetectionInterval: 5 * time.Minute,
		OrphanThreshold:         30 * time.Minute,
	}
}
