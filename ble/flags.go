package ble

import (
  "strconv"
  "strings"
)

type Flags int

const (
  // Run active scans, asking peripherals for scan responses. The Squegg only sends its local name
  // in the scan response, so selecting it by name needs this.
  FlagScanTypeActive Flags = 1 << iota
  // Enable an allowlist for scans. Must be configured with `SetAllowListedAddresses()`.
  FlagEnableDeviceAllowList
)

func (f Flags) Has(flag Flags) bool {
  return f & flag == flag
}

func (f Flags) String() string {
  var flags []string

  if f.Has(FlagScanTypeActive) {
    flags = append(flags, "active scan")
  }

  if f.Has(FlagEnableDeviceAllowList) {
    flags = append(flags, "device allow-list")
  }

  if len(flags) == 0 {
    return "none"
  }

  return strings.Join(flags, ", ")
}

func (f Flags) scanType() scanType {
  if f.Has(FlagScanTypeActive) {
    return scanTypeActive
  }

  return scanTypePassive
}

func (f Flags) filterPolicy() filterPolicy {
  if f.Has(FlagEnableDeviceAllowList) {
    return filterPolicyAllowListedOnly
  }

  return filterPolicyAcceptAll
}

type scanType uint8

const (
  scanTypePassive scanType = iota
  scanTypeActive
)

func (s scanType) String() string {
  switch s {
  case scanTypeActive:
    return "Active"
  case scanTypePassive:
    return "Passive"
  default:
    return "scanType(" + strconv.Itoa(int(s)) + ")"
  }
}

type filterPolicy uint8

const (
  filterPolicyAcceptAll filterPolicy = iota
  filterPolicyAllowListedOnly
)

func (f filterPolicy) String() string {
  switch f {
  case filterPolicyAcceptAll:
    return "Accept All"
  case filterPolicyAllowListedOnly:
    return "Allow-listed Only"
  default:
    return "filterPolicy(" + strconv.Itoa(int(f)) + ")"
  }
}
