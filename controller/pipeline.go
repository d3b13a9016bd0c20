package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robertof/go-squegg-meter/ble"
)

// attempt carries what each step of the connect sequence resolved so far.
type attempt struct {
	ctrl *Controller

	adv            ble.Advertisement
	peripheral     Peripheral
	service        *ble.Service
	characteristic *ble.Characteristic
	notifications  chan []byte
}

type step struct {
	name string
	run  func(a *attempt, ctx context.Context) error
}

// The connect sequence. Steps run in order and the first failure aborts the rest.
var connectSequence = []step{
	{"select device", (*attempt).selectDevice},
	{"connect", (*attempt).connect},
	{"resolve service", (*attempt).resolveService},
	{"resolve characteristic", (*attempt).resolveCharacteristic},
	{"enable notifications", (*attempt).enableNotifications},
	{"register listener", (*attempt).registerListener},
}

// run executes the sequence, returning the name of the failed step along with its error.
func (a *attempt) run(ctx context.Context) (string, error) {
	for _, s := range connectSequence {
		log.Trace().Str("Step", s.name).Stringer("Device", a.ctrl.dev).Msg("controller: running connect step")

		if err := s.run(a, ctx); err != nil {
			a.abort()
			return s.name, err
		}
	}

	return "", nil
}

// abort releases the GATT connection opened by a failed attempt, if any.
func (a *attempt) abort() {
	if a.peripheral == nil {
		return
	}

	if err := a.peripheral.CancelConnection(); err != nil {
		log.Warn().Err(err).Msg("controller: failed to cancel connection after failed attempt")
	}

	a.peripheral = nil
}

func (a *attempt) selectDevice(parentCtx context.Context) error {
	ctx, cancel := withTimeout(parentCtx, a.ctrl.cfg.DiscoveryTimeout)
	defer cancel()

	adv, err := a.ctrl.central.FindDevice(ctx, a.ctrl.dev.Options())

	if err != nil {
		return err
	}

	if adv == nil {
		return fmt.Errorf("device could not be found")
	}

	log.Info().
		Str("Addr", adv.Addr().String()).
		Str("Name", adv.LocalName()).
		Int("RSSI", adv.RSSI()).
		Msg("Found device")

	a.adv = adv
	return nil
}

func (a *attempt) connect(parentCtx context.Context) error {
	ctx, cancel := withTimeout(parentCtx, a.ctrl.cfg.ConnectTimeout)
	defer cancel()

	p, err := a.ctrl.central.Dial(ctx, a.adv.Addr())

	if err != nil {
		return fmt.Errorf("failed to connect to device: %w", err)
	}

	a.peripheral = p
	return nil
}

func (a *attempt) resolveService(context.Context) error {
	uuid := a.ctrl.dev.ServiceUUID()
	services, err := a.peripheral.DiscoverServices([]ble.UUID{uuid})

	if err != nil {
		return fmt.Errorf("cannot discover services: %w", err)
	}

	for _, svc := range services {
		if svc.UUID.Equal(uuid) {
			a.service = svc
			return nil
		}
	}

	return fmt.Errorf("%w: %v", ErrServiceNotFound, uuid)
}

func (a *attempt) resolveCharacteristic(context.Context) error {
	uuid := a.ctrl.dev.CharacteristicUUID()
	chars, err := a.peripheral.DiscoverCharacteristics([]ble.UUID{uuid}, a.service)

	if err != nil {
		return fmt.Errorf("cannot discover characteristics: %w", err)
	}

	for _, char := range chars {
		if !char.UUID.Equal(uuid) {
			continue
		}

		if char.Property&(ble.CharNotify|ble.CharIndicate) == 0 {
			return fmt.Errorf("%w: %v", ErrNotNotifiable, uuid)
		}

		// subscribing writes the CCCD, which is only known after descriptor discovery.
		if _, err := a.peripheral.DiscoverDescriptors(nil, char); err != nil {
			return fmt.Errorf("cannot discover descriptors: %w", err)
		}

		a.characteristic = char
		return nil
	}

	return fmt.Errorf("%w: %v", ErrCharacteristicNotFound, uuid)
}

func (a *attempt) enableNotifications(context.Context) error {
	indicate := a.characteristic.Property&ble.CharNotify == 0
	a.notifications = make(chan []byte, a.ctrl.cfg.NotificationBuffer)

	if err := a.peripheral.Subscribe(a.characteristic, indicate, a.onNotification); err != nil {
		return fmt.Errorf("failed to enable notifications: %w", err)
	}

	return nil
}

func (a *attempt) registerListener(context.Context) error {
	return a.ctrl.listen(a.peripheral, a.notifications)
}

// onNotification runs on the BLE stack's goroutine. Blocking here queues notifications in the
// stack until the dispatcher catches up.
func (a *attempt) onNotification(data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)

	select {
	case a.notifications <- buf:
	case <-a.ctrl.done:
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}

	return context.WithCancel(ctx)
}
