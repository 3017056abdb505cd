package sequencer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultFrameInterval is roughly one display refresh.
	DefaultFrameInterval = 16 * time.Millisecond
	// DefaultStartDelay lets the map settle before the first flight.
	DefaultStartDelay = 1500 * time.Millisecond
)

// Driver feeds wall-clock ticks into a Sequencer.
type Driver struct {
	Sequencer  *Sequencer
	Interval   time.Duration
	StartDelay time.Duration
	Logger     *zap.Logger
}

// NewDriver returns a driver with the default frame interval and start delay.
func NewDriver(s *Sequencer, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		Sequencer:  s,
		Interval:   DefaultFrameInterval,
		StartDelay: DefaultStartDelay,
		Logger:     logger,
	}
}

// Run starts the continuous loop after StartDelay and ticks it until ctx is
// done. On return the sequencer is stopped.
func (d *Driver) Run(ctx context.Context) error {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := d.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	if d.StartDelay > 0 {
		timer := time.NewTimer(d.StartDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}

	d.Sequencer.Start()
	logger.Info("santa driver running", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			d.Sequencer.Stop()
			d.Sequencer.Tick(0)
			logger.Info("santa driver stopped")
			return nil
		case now := <-ticker.C:
			d.Sequencer.Tick(now.Sub(last))
			last = now
		}
	}
}
