package mqtt

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robertof/go-squegg-meter/controller"
)

const DefaultQueueSize = 32

// Forwarder relays controller events to a Publisher from its own goroutine, so that a slow broker
// never stalls sample delivery.
type Forwarder struct {
	pub    Publisher
	device string
	queue  chan func() error
	now    func() time.Time
}

func NewForwarder(pub Publisher, device string, queueSize int) *Forwarder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	return &Forwarder{
		pub:    pub,
		device: device,
		queue:  make(chan func() error, queueSize),
		now:    time.Now,
	}
}

// Attach registers the forwarder as an observer of ctrl.
func (f *Forwarder) Attach(ctrl *controller.Controller) {
	ctrl.OnStateChange(f.HandleStateChange)
	ctrl.OnSample(f.HandleUpdate)
}

func (f *Forwarder) HandleStateChange(change controller.StateChange) {
	event := StateEvent{
		Timestamp: f.now(),
		Device:    f.device,
		State:     change.To.String(),
	}

	if change.Err != nil {
		event.Error = change.Err.Error()
	}

	f.enqueue("state", func() error { return f.pub.PublishState(event) })
}

// HandleUpdate publishes counted grips only.
func (f *Forwarder) HandleUpdate(u controller.Update) {
	if !u.Counted {
		return
	}

	event := GripEvent{
		Timestamp: f.now(),
		Device:    f.device,
		Strength:  u.Sample.Strength,
		Grips:     u.Grips,
		Battery:   u.Sample.BatteryCharge,
	}

	f.enqueue("grip", func() error { return f.pub.PublishGrip(event) })
}

func (f *Forwarder) enqueue(kind string, publish func() error) {
	select {
	case f.queue <- publish:
	default:
		log.Warn().Str("Kind", kind).Msg("mqtt: queue full, dropping event")
	}
}

// Run publishes queued events until ctx is done, then closes the publisher.
func (f *Forwarder) Run(ctx context.Context) error {
	defer func() {
		if err := f.pub.Close(); err != nil {
			log.Warn().Err(err).Msg("mqtt: failed to close publisher")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case publish := <-f.queue:
			if err := publish(); err != nil {
				log.Error().Err(err).Msg("mqtt: failed to publish event")
			}
		}
	}
}
