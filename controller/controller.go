// Package controller drives the connection lifecycle of a single peripheral and fans its decoded
// samples out to the grip filter and to observers.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robertof/go-squegg-meter/device"
	"github.com/robertof/go-squegg-meter/grip"
)

var ErrClosed = errors.New("controller closed")

const (
	DefaultDiscoveryTimeout   = 10 * time.Second
	DefaultConnectTimeout     = 10 * time.Second
	DefaultErrorCooldown      = 2 * time.Second
	DefaultNotificationBuffer = 64
)

type Config struct {
	// How long to scan for a matching device before giving up.
	DiscoveryTimeout time.Duration
	// How long to wait for the GATT connection to be established.
	ConnectTimeout time.Duration
	// Time spent in StateError before reverting to StateInitial.
	ErrorCooldown time.Duration
	// Notifications queued between the BLE stack and the dispatcher.
	NotificationBuffer int
}

func DefaultConfig() Config {
	return Config{
		DiscoveryTimeout:   DefaultDiscoveryTimeout,
		ConnectTimeout:     DefaultConnectTimeout,
		ErrorCooldown:      DefaultErrorCooldown,
		NotificationBuffer: DefaultNotificationBuffer,
	}
}

type StateChange struct {
	From, To State
	// Set when entering StateError.
	Err error
}

// Update is delivered to sample observers for every decoded notification.
type Update struct {
	Sample device.Sample
	// Grip count after observing Sample.
	Grips uint64
	// Sample completed a grip.
	Counted bool
}

// Snapshot is a consistent point-in-time copy of the controller's state.
type Snapshot struct {
	State        State
	Err          error
	Sample       device.Sample
	SampleTime   time.Time
	Grips        uint64
	Samples      uint64
	DecodeErrors uint64
}

func (s Snapshot) HasSample() bool {
	return !s.SampleTime.IsZero()
}

type Controller struct {
	central Central
	dev     device.Device
	grips   *grip.Filter
	cfg     Config

	mu           sync.Mutex
	state        State
	lastErr      error
	peripheral   Peripheral
	cooldown     *time.Timer
	lastSample   device.Sample
	lastSampleAt time.Time
	samples      uint64
	decodeErrors uint64

	stateObservers  []func(StateChange)
	sampleObservers []func(Update)

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func New(central Central, dev device.Device, grips *grip.Filter, cfg Config) *Controller {
	if cfg.NotificationBuffer <= 0 {
		cfg.NotificationBuffer = DefaultNotificationBuffer
	}

	return &Controller{
		central: central,
		dev:     dev,
		grips:   grips,
		cfg:     cfg,
		state:   StateInitial,
		done:    make(chan struct{}),
	}
}

// OnStateChange registers an observer called after every transition. Observers run synchronously
// on the goroutine causing the transition and must not block.
func (c *Controller) OnStateChange(f func(StateChange)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stateObservers = append(c.stateObservers, f)
}

// OnSample registers an observer called in delivery order for every decoded sample.
func (c *Controller) OnSample(f func(Update)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sampleObservers = append(c.sampleObservers, f)
}

func (c *Controller) Device() device.Device {
	return c.dev
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// LastError returns the cause of the latest failed connect sequence.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastErr
}

func (c *Controller) Grips() uint64 {
	return c.grips.Count()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:        c.state,
		Err:          c.lastErr,
		Sample:       c.lastSample,
		SampleTime:   c.lastSampleAt,
		Grips:        c.grips.Count(),
		Samples:      c.samples,
		DecodeErrors: c.decodeErrors,
	}
}

// Connect runs the connect sequence. It is only accepted in StateInitial and fails with
// ErrInvalidTransition otherwise. Failures of the sequence itself are not returned: they move the
// controller to StateError, are logged, and are available through LastError until the cool-down
// brings it back to StateInitial.
func (c *Controller) Connect(ctx context.Context) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	if err := c.transition(EventConnect, nil); err != nil {
		return err
	}

	log.Info().Stringer("Device", c.dev).Msg("Connecting to device")

	a := &attempt{ctrl: c}

	if stepName, err := a.run(ctx); err != nil {
		connErr := &ConnectionError{Step: stepName, Err: err}

		log.Error().
			Err(connErr).
			Stringer("Device", c.dev).
			Dur("Cooldown", c.cfg.ErrorCooldown).
			Msg("An error occurred while connecting to the device")

		c.fail(connErr)
		return nil
	}

	if err := c.transition(EventSucceeded, nil); err != nil {
		return err
	}

	log.Info().Stringer("Device", c.dev).Msg("Connected, receiving samples")

	return nil
}

func (c *Controller) fail(err error) {
	if terr := c.transition(EventFailed, err); terr != nil {
		log.Error().Err(terr).Msg("controller: cannot enter error state")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
	}

	c.cooldown = time.AfterFunc(c.cfg.ErrorCooldown, func() {
		if err := c.transition(EventCooledDown, nil); err != nil {
			log.Warn().Err(err).Msg("controller: cool-down fired outside of error state")
		}
	})
}

func (c *Controller) transition(e Event, cause error) error {
	c.mu.Lock()

	from := c.state
	to, err := Next(from, e)

	if err != nil {
		c.mu.Unlock()
		return err
	}

	c.state = to

	switch to {
	case StateError:
		c.lastErr = cause
	case StateInitial:
		c.lastErr = nil
		c.cooldown = nil
	}

	observers := c.stateObservers
	c.mu.Unlock()

	log.Debug().
		Stringer("From", from).
		Stringer("To", to).
		Stringer("Event", e).
		Msg("controller: state transition")

	change := StateChange{From: from, To: to, Err: cause}

	for _, f := range observers {
		f(change)
	}

	return nil
}

func (c *Controller) listen(p Peripheral, notifications <-chan []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.peripheral = p
	c.wg.Add(1)

	go c.dispatch(notifications)

	return nil
}

func (c *Controller) dispatch(notifications <-chan []byte) {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case data := <-notifications:
			c.handleNotification(data)
		}
	}
}

func (c *Controller) handleNotification(data []byte) {
	sample, err := c.dev.Decode(data)

	if err != nil {
		c.mu.Lock()
		c.decodeErrors += 1
		c.mu.Unlock()

		log.Warn().
			Err(err).
			Hex("Data", data).
			Stringer("Device", c.dev).
			Msg("Dropping undecodable notification")

		return
	}

	counted := c.grips.Observe(sample)
	update := Update{
		Sample:  sample,
		Grips:   c.grips.Count(),
		Counted: counted,
	}

	c.mu.Lock()
	c.lastSample = sample
	c.lastSampleAt = time.Now()
	c.samples += 1
	observers := c.sampleObservers
	c.mu.Unlock()

	log.Trace().Stringer("Sample", sample).Msg("controller: received sample")

	if counted {
		log.Debug().
			Float64("Strength", sample.Strength).
			Uint64("Grips", update.Grips).
			Msg("Grip counted")
	}

	for _, f := range observers {
		f(update)
	}
}

// Close releases the connection and stops dispatching samples. The state is left untouched.
func (c *Controller) Close() error {
	var err error

	c.closeOnce.Do(func() {
		c.mu.Lock()
		close(c.done)

		if c.cooldown != nil {
			c.cooldown.Stop()
		}

		p := c.peripheral
		c.peripheral = nil
		c.mu.Unlock()

		if p != nil {
			err = p.CancelConnection()
		}

		c.wg.Wait()
	})

	return err
}
