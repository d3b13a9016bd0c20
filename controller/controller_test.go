package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertof/go-squegg-meter/ble"
	"github.com/robertof/go-squegg-meter/device/squegg"
	"github.com/robertof/go-squegg-meter/grip"
)

const testCooldown = 50 * time.Millisecond

type recorder struct {
	mu      sync.Mutex
	changes []StateChange
	updates []Update
}

func (r *recorder) states() []State {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []State
	for _, c := range r.changes {
		out = append(out, c.To)
	}
	return out
}

func (r *recorder) numUpdates() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.updates)
}

func newTestController(t *testing.T, central *fakeCentral) (*Controller, *recorder) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.ErrorCooldown = testCooldown

	c := New(central, squegg.New(), grip.New(grip.DefaultThreshold), cfg)
	t.Cleanup(func() { _ = c.Close() })

	rec := &recorder{}
	c.OnStateChange(func(sc StateChange) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.changes = append(rec.changes, sc)
	})
	c.OnSample(func(u Update) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.updates = append(rec.updates, u)
	})

	return c, rec
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2000*time.Millisecond, cfg.ErrorCooldown)
	assert.Equal(t, DefaultNotificationBuffer, cfg.NotificationBuffer)
}

func TestConnectSuccess(t *testing.T) {
	p := newSqueggPeripheral()
	central := &fakeCentral{peripheral: p}
	c, rec := newTestController(t, central)

	require.Equal(t, StateInitial, c.State())
	require.NoError(t, c.Connect(context.Background()))

	assert.Equal(t, StateConnected, c.State())
	assert.Equal(t, []State{StateConnecting, StateConnected}, rec.states())
	assert.Equal(t, []string{"services", "characteristics", "descriptors"}, p.discovered)
	assert.False(t, p.indicate)
	assert.Equal(t, squegg.AdvertisedNamePrefix, central.lastOptions.NamePrefix)
	assert.NoError(t, c.LastError())
}

func TestConnectedForwardsSamplesToGripFilterAndObservers(t *testing.T) {
	p := newSqueggPeripheral()
	c, rec := newTestController(t, &fakeCentral{peripheral: p})

	require.NoError(t, c.Connect(context.Background()))

	p.notify("6.00,1,90", "7.50,1,90", "6.20,0,90", "1.00,0,89", "garbage", "12,1,89", "0.5,0,89")

	require.Eventually(t, func() bool { return rec.numUpdates() == 6 }, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	updates := append([]Update(nil), rec.updates...)
	rec.mu.Unlock()

	var counted []bool
	for _, u := range updates {
		counted = append(counted, u.Counted)
	}

	assert.Equal(t, []bool{false, false, true, false, false, false}, counted)
	assert.Equal(t, uint64(1), updates[len(updates)-1].Grips)
	assert.Equal(t, uint64(1), c.Grips())

	snap := c.Snapshot()
	assert.Equal(t, StateConnected, snap.State)
	assert.True(t, snap.HasSample())
	assert.Equal(t, uint64(6), snap.Samples)
	assert.Equal(t, uint64(1), snap.DecodeErrors)
	assert.Equal(t, 0.5, snap.Sample.Strength)
	assert.Equal(t, 89, snap.Sample.BatteryCharge)
}

func TestConnectFailuresRevertToInitialAfterCooldown(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name       string
		central    func() *fakeCentral
		wantErr    error
		wantStep   string
		wantCancel int
	}{
		{
			name:     "device not found",
			central:  func() *fakeCentral { return &fakeCentral{findErr: ble.ErrDeviceNotFound} },
			wantErr:  ble.ErrDeviceNotFound,
			wantStep: "select device",
		},
		{
			name: "connection refused",
			central: func() *fakeCentral {
				return &fakeCentral{dialErr: boom, peripheral: newSqueggPeripheral()}
			},
			wantErr:  boom,
			wantStep: "connect",
		},
		{
			name: "service resolution throws",
			central: func() *fakeCentral {
				p := newSqueggPeripheral()
				p.servicesErr = boom
				return &fakeCentral{peripheral: p}
			},
			wantErr:    boom,
			wantStep:   "resolve service",
			wantCancel: 1,
		},
		{
			name: "service missing",
			central: func() *fakeCentral {
				p := newSqueggPeripheral()
				p.services = p.services[:1]
				return &fakeCentral{peripheral: p}
			},
			wantErr:    ErrServiceNotFound,
			wantStep:   "resolve service",
			wantCancel: 1,
		},
		{
			name: "characteristic missing",
			central: func() *fakeCentral {
				p := newSqueggPeripheral()
				p.chars = nil
				return &fakeCentral{peripheral: p}
			},
			wantErr:    ErrCharacteristicNotFound,
			wantStep:   "resolve characteristic",
			wantCancel: 1,
		},
		{
			name: "characteristic cannot notify",
			central: func() *fakeCentral {
				p := newSqueggPeripheral()
				p.chars[0].Property = 0x02 // read only
				return &fakeCentral{peripheral: p}
			},
			wantErr:    ErrNotNotifiable,
			wantStep:   "resolve characteristic",
			wantCancel: 1,
		},
		{
			name: "subscription rejected",
			central: func() *fakeCentral {
				p := newSqueggPeripheral()
				p.subscribeErr = boom
				return &fakeCentral{peripheral: p}
			},
			wantErr:    boom,
			wantStep:   "enable notifications",
			wantCancel: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			central := tt.central()
			c, rec := newTestController(t, central)

			require.NoError(t, c.Connect(context.Background()))

			assert.Equal(t, StateError, c.State())

			var connErr *ConnectionError
			require.ErrorAs(t, c.LastError(), &connErr)
			assert.Equal(t, tt.wantStep, connErr.Step)
			assert.ErrorIs(t, c.LastError(), tt.wantErr)
			assert.Equal(t, uint64(0), c.Grips())

			if central.peripheral != nil {
				assert.Equal(t, tt.wantCancel, central.peripheral.cancellations())
			}

			require.Eventually(t, func() bool { return c.State() == StateInitial },
				10*testCooldown, 5*time.Millisecond)

			assert.Equal(t, []State{StateConnecting, StateError, StateInitial}, rec.states())
			assert.NoError(t, c.LastError())
			assert.Equal(t, uint64(0), c.Grips())
		})
	}
}

func TestErrorStateLastsForCooldown(t *testing.T) {
	c, _ := newTestController(t, &fakeCentral{findErr: ble.ErrDeviceNotFound})

	start := time.Now()
	require.NoError(t, c.Connect(context.Background()))
	require.Equal(t, StateError, c.State())

	require.Eventually(t, func() bool { return c.State() == StateInitial },
		10*testCooldown, time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), testCooldown)
}

func TestConnectIsOnlyAcceptedInInitialState(t *testing.T) {
	central := &fakeCentral{findErr: ble.ErrDeviceNotFound}
	c, _ := newTestController(t, central)

	require.NoError(t, c.Connect(context.Background()))
	require.Equal(t, StateError, c.State())

	assert.ErrorIs(t, c.Connect(context.Background()), ErrInvalidTransition)

	finds, _ := central.counts()
	assert.Equal(t, 1, finds)

	// retrying is possible once the cool-down is over.
	require.Eventually(t, func() bool { return c.State() == StateInitial },
		10*testCooldown, 5*time.Millisecond)

	central.mu.Lock()
	central.findErr = nil
	central.peripheral = newSqueggPeripheral()
	central.mu.Unlock()

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, StateConnected, c.State())

	// connected is terminal for the session.
	assert.ErrorIs(t, c.Connect(context.Background()), ErrInvalidTransition)
	assert.Equal(t, StateConnected, c.State())
}

func TestCloseReleasesConnection(t *testing.T) {
	p := newSqueggPeripheral()
	c, _ := newTestController(t, &fakeCentral{peripheral: p})

	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Close())

	assert.Equal(t, 1, p.cancellations())
	assert.Equal(t, StateConnected, c.State())
	assert.ErrorIs(t, c.Connect(context.Background()), ErrClosed)

	// notifications delivered after close must not block the BLE stack.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 2*DefaultNotificationBuffer; i++ {
			p.notify("1,0,50")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notification handler blocked after Close()")
	}
}

func TestCloseStopsPendingCooldown(t *testing.T) {
	c, rec := newTestController(t, &fakeCentral{findErr: ble.ErrDeviceNotFound})

	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Close())

	time.Sleep(3 * testCooldown)

	assert.Equal(t, StateError, c.State())
	assert.Equal(t, []State{StateConnecting, StateError}, rec.states())
}
