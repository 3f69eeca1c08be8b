// Package types holds the NetDIMM driver's shared data-model enums and
// structs (target family, firmware version, device info) that the command,
// target-policy, and facade layers all need without creating an import
// cycle back to the public facade package.
package types

import "fmt"

// Target identifies the hardware family a NetDIMM is driving.
type Target int

const (
	// TargetNaomi is the default target family.
	TargetNaomi Target = iota
	TargetChihiro
	TargetTriforce
)

func (t Target) String() string {
	switch t {
	case TargetChihiro:
		return "chihiro"
	case TargetNaomi:
		return "naomi"
	case TargetTriforce:
		return "triforce"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// ParseTarget maps a config string to a Target, defaulting to TargetNaomi
// for anything unrecognised.
func ParseTarget(s string) Target {
	switch s {
	case "chihiro":
		return TargetChihiro
	case "triforce":
		return TargetTriforce
	default:
		return TargetNaomi
	}
}

// FirmwareVersion identifies a NetDIMM firmware revision.
type FirmwareVersion int

const (
	FirmwareUnknown FirmwareVersion = iota
	Firmware1_07
	Firmware2_03
	Firmware2_15
	Firmware3_01
	Firmware4_01
	Firmware4_02
)

var firmwareStrings = map[FirmwareVersion]string{
	FirmwareUnknown: "UNKNOWN",
	Firmware1_07:    "1.07",
	Firmware2_03:    "2.03",
	Firmware2_15:    "2.15",
	Firmware3_01:    "3.01",
	Firmware4_01:    "4.01",
	Firmware4_02:    "4.02",
}

var stringToFirmware = func() map[string]FirmwareVersion {
	m := make(map[string]FirmwareVersion, len(firmwareStrings))
	for v, s := range firmwareStrings {
		m[s] = v
	}
	return m
}()

func (v FirmwareVersion) String() string {
	if s, ok := firmwareStrings[v]; ok {
		return s
	}
	return fmt.Sprintf("firmware(%d)", int(v))
}

// ParseFirmwareVersion maps a "{major}.{minor:02}" string, as decoded from
// the get-info reply, to a FirmwareVersion. Unrecognised strings map to
// FirmwareUnknown — the dynamic-enum-membership fallback spec.md §9 calls
// out explicitly.
func ParseFirmwareVersion(s string) FirmwareVersion {
	if v, ok := stringToFirmware[s]; ok {
		return v
	}
	return FirmwareUnknown
}

// DeviceInfo is the decoded reply to a get-info command.
type DeviceInfo struct {
	// CurrentGameCRC is the CRC32 (one's-complement) of the currently
	// loaded game image, as last reported by set-info.
	CurrentGameCRC uint32
	// DimmMemoryMB is the raw "total DIMM memory" field from the device, in
	// megabytes.
	DimmMemoryMB uint16
	// FirmwareVersion is the firmware revision tag.
	FirmwareVersion FirmwareVersion
	// AvailableGameMemory is the usable game memory in bytes
	// (GameMemoryMB << 20).
	AvailableGameMemory uint32
	// Unknown carries the first, undocumented u16 field of the get-info
	// reply opaquely (spec.md §9): never asserted on, only forwarded.
	Unknown uint16
}
