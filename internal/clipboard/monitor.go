package clipboard

import (
	"context"
	"sync"
	"time"
)

// Adaptive polling constants
const (
	MinPollInterval = 50 * time.Millisecond // During active use
	ActivityWindow  = 30 * time.Second      // Time window to consider "active"
)

// Probe returns a token that changes whenever the register changes,
// such as a pasteboard change count or a file modification time
type Probe func(ctx context.Context) (string, error)

// Monitor watches a register for changes using polling.
// In adaptive mode it polls at MinPollInterval while the register is
// active and eases back to the configured interval once it goes idle.
type Monitor struct {
	probe     Probe
	interval  time.Duration
	adaptive  bool
	lastToken string
	onChange  ChangeHandler
	stopChan  chan struct{}
	running   bool

	lastActivity    time.Time
	currentInterval time.Duration

	// checkMu serializes probing against Quiet
	checkMu sync.Mutex
	mu      sync.Mutex
}

// NewMonitor creates a monitor polling at a fixed interval
func NewMonitor(probe Probe, interval time.Duration) *Monitor {
	return &Monitor{
		probe:           probe,
		interval:        interval,
		currentInterval: interval,
		stopChan:        make(chan struct{}),
	}
}

// NewAdaptiveMonitor creates a monitor whose idle interval is maxInterval
func NewAdaptiveMonitor(probe Probe, maxInterval time.Duration) *Monitor {
	m := NewMonitor(probe, maxInterval)
	m.adaptive = true
	return m
}

// OnChange sets the handler for register changes
func (m *Monitor) OnChange(handler ChangeHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = handler
}

// Start records the current token and begins polling
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopChan = make(chan struct{})
	stop := m.stopChan
	m.mu.Unlock()

	if token, err := m.probe(context.Background()); err == nil {
		m.mu.Lock()
		m.lastToken = token
		m.mu.Unlock()
	}

	go m.run(stop)
}

// Stop stops the monitor
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	close(m.stopChan)
}

// IsRunning returns true if the monitor is active
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Quiet runs fn, which changes the register, and adopts the resulting
// token so the change is not reported to the handler
func (m *Monitor) Quiet(ctx context.Context, fn func() error) error {
	m.checkMu.Lock()
	defer m.checkMu.Unlock()

	if err := fn(); err != nil {
		return err
	}

	token, err := m.probe(ctx)
	if err != nil {
		return nil
	}
	m.mu.Lock()
	m.lastToken = token
	m.lastActivity = time.Now()
	m.mu.Unlock()
	return nil
}

// NotifyActivity signals that register activity occurred.
// Adaptive monitors poll faster for the next ActivityWindow.
func (m *Monitor) NotifyActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = time.Now()
}

// pollInterval calculates the current polling interval based on activity
func (m *Monitor) pollInterval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.adaptive || m.interval <= MinPollInterval {
		m.currentInterval = m.interval
		return m.currentInterval
	}

	sinceActivity := time.Since(m.lastActivity)
	switch {
	case sinceActivity < ActivityWindow:
		m.currentInterval = MinPollInterval
	case sinceActivity >= 2*ActivityWindow:
		m.currentInterval = m.interval
	default:
		// Linear interpolation from min to max over another activity window
		ratio := float64(sinceActivity-ActivityWindow) / float64(ActivityWindow)
		m.currentInterval = MinPollInterval + time.Duration(ratio*float64(m.interval-MinPollInterval))
	}
	return m.currentInterval
}

func (m *Monitor) run(stop <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := time.NewTicker(m.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkForChanges(ctx)
			if m.adaptive {
				ticker.Reset(m.pollInterval())
			}
		case <-stop:
			return
		}
	}
}

func (m *Monitor) checkForChanges(ctx context.Context) {
	m.checkMu.Lock()
	token, err := m.probe(ctx)
	if err != nil {
		m.checkMu.Unlock()
		return
	}

	m.mu.Lock()
	changed := token != m.lastToken
	m.lastToken = token
	if changed {
		m.lastActivity = time.Now()
	}
	handler := m.onChange
	m.mu.Unlock()
	m.checkMu.Unlock()

	if !changed {
		return
	}

	if handler != nil {
		handler()
	}
}
