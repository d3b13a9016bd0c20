package main

import (
	"testing"

	ble_mod "github.com/go-ble/ble"
	"github.com/stretchr/testify/assert"

	"github.com/robertof/go-squegg-meter/ble"
	"github.com/robertof/go-squegg-meter/device/squegg"
)

type fakeAdvertisement struct {
  name     string
  addr     string
  services []ble_mod.UUID
  rssi     int
}

func (f fakeAdvertisement) LocalName() string                  { return f.name }
func (f fakeAdvertisement) ManufacturerData() []byte           { return nil }
func (f fakeAdvertisement) ServiceData() []ble_mod.ServiceData { return nil }
func (f fakeAdvertisement) Services() []ble_mod.UUID           { return f.services }
func (f fakeAdvertisement) OverflowService() []ble_mod.UUID    { return nil }
func (f fakeAdvertisement) TxPowerLevel() int                  { return 0 }
func (f fakeAdvertisement) Connectable() bool                  { return true }
func (f fakeAdvertisement) SolicitedService() []ble_mod.UUID   { return nil }
func (f fakeAdvertisement) RSSI() int                          { return f.rssi }
func (f fakeAdvertisement) Addr() ble_mod.Addr                 { return ble_mod.NewAddr(f.addr) }

func TestDiscoveredDevice_Merge(t *testing.T) {
  opts := squegg.New().Options()
  d := &discoveredDevice{}

  // the name only shows up in the scan response.
  d.merge(fakeAdvertisement{
    addr: "c4:7f:51:0a:11:22",
    services: []ble_mod.UUID{ble.UUID16(0x180f)},
    rssi: -70,
  }, opts)

  assert.False(t, d.matches)
  assert.Empty(t, d.name)

  d.merge(fakeAdvertisement{
    name: "Squegg-1234",
    addr: "c4:7f:51:0a:11:22",
    services: []ble_mod.UUID{ble.UUID16(0xffe0), ble.UUID16(0x180f)},
    rssi: -60,
  }, opts)

  assert.True(t, d.matches)
  assert.Equal(t, "Squegg-1234", d.name)
  assert.Equal(t, -60, d.rssi)
  assert.Equal(t, []string{"180f", "ffe0"}, d.serviceList())

  // a later advertisement without a name doesn't clear what we know.
  d.merge(fakeAdvertisement{addr: "c4:7f:51:0a:11:22", rssi: -65}, opts)

  assert.True(t, d.matches)
  assert.Equal(t, "Squegg-1234", d.name)
}
