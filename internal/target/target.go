// Package target implements the per-firmware boot-ID patch table (spec.md
// §4.6): a Triforce-only post-reboot memory patch that rewrites the boot-ID
// region check to an unconditional return.
package target

import (
	"github.com/softdrink117/go-netdimm/internal/frame"
	"github.com/softdrink117/go-netdimm/internal/command"
	"github.com/softdrink117/go-netdimm/internal/types"
)

// baseAddresses maps firmware version to the base address of its boot-ID
// check routine. Firmware not listed here gets no patch.
var baseAddresses = map[types.FirmwareVersion]uint32{
	types.Firmware1_07: 0x8000D8A0,
	types.Firmware2_03: 0x8000CC6C,
	types.Firmware2_15: 0x8000CC6C,
	types.Firmware3_01: 0x8000DC5C,
}

// sender is the command layer's dependency.
type sender interface {
	Send(frame.Packet) error
	Recv() (frame.Packet, error)
}

// ApplyBootIDPatch writes the boot-ID bypass for version, if a base address
// is known for it. Firmware absent from the table is a silent no-op — this
// is the one "recover silently" error case in spec.md §7
// (UnsupportedTarget). Callers only invoke this for TargetTriforce.
//
// Firmware 3.01 takes a single-word patch; earlier listed firmwares take a
// four-word sequence. The fourth write's address (base+12) is carried as
// spec.md §9 documents it, flagged there as possibly wrong in the original
// script (which may have used base+0, an already-overwritten address) — kept
// parameterized and unchanged rather than silently "corrected".
func ApplyBootIDPatch(sess sender, version types.FirmwareVersion) error {
	base, ok := baseAddresses[version]
	if !ok {
		return nil
	}

	if version == types.Firmware3_01 {
		return command.HostPoke(sess, base+0, 0x4800001C)
	}

	writes := []struct {
		offset uint32
		value  uint32
	}{
		{0, 0x4E800020},
		{4, 0x38600000},
		{8, 0x4E800020},
		{12, 0x60000000},
	}
	for _, w := range writes {
		if err := command.HostPoke(sess, base+w.offset, w.value); err != nil {
			return err
		}
	}
	return nil
}
