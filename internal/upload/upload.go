// Package upload implements the chunked upload pipeline (spec.md §4.5):
// split a payload into fixed-size chunks, optionally DES-encrypt each
// chunk, emit upload commands tagged with sequence and address, accumulate
// the CRC over the ciphertext, and finalize with set-info.
package upload

import (
	"hash/crc32"

	"github.com/softdrink117/go-netdimm/internal/command"
	"github.com/softdrink117/go-netdimm/internal/frame"
	"github.com/softdrink117/go-netdimm/internal/neterr"
)

// ChunkSize is the fixed 32 KiB upload quantum.
const ChunkSize = 0x8000

// sender is the command layer's dependency, re-declared here so this
// package doesn't need to import internal/session directly.
type sender interface {
	Send(frame.Packet) error
	Recv() (frame.Packet, error)
}

// ProgressFunc is called with (done, total) bytes before each chunk is
// sent. It is advisory: it must not mutate the session or issue new
// operations. It has no return value and cannot abort the upload.
type ProgressFunc func(done, total int)

// Run drives the full upload pipeline over sess: chunk data, optionally
// encrypt each chunk with key, send it, accumulate CRC, and finalize with
// set-info. progress may be nil.
func Run(sess sender, data []byte, key *[8]byte, progress ProgressFunc) error {
	if len(data) == 0 {
		return neterr.New(neterr.InvalidArgument, "upload.Run: empty payload")
	}

	var cipher *desECB
	if key != nil {
		if len(data)%8 != 0 {
			return neterr.New(neterr.InvalidArgument, "upload.Run: encrypted payload length must be a multiple of 8")
		}
		c, err := newDESECB(*key)
		if err != nil {
			return neterr.Wrap(neterr.InvalidArgument, "upload.Run", err)
		}
		cipher = c
	}

	total := len(data)
	var crc uint32
	addr := 0
	seq := uint32(1)

	for addr < total {
		end := addr + ChunkSize
		if end > total {
			end = total
		}
		chunk := data[addr:end]
		last := end == total

		if progress != nil {
			progress(addr, total)
		}

		var wire []byte
		if cipher != nil {
			enc, err := cipher.transform(chunk)
			if err != nil {
				return neterr.Wrap(neterr.InvalidArgument, "upload.Run", err)
			}
			wire = enc
		} else {
			wire = chunk
		}

		if err := command.UploadChunk(sess, seq, uint32(addr), wire, last); err != nil {
			return err
		}

		crc = crc32.Update(crc, crc32.IEEETable, wire)
		addr = end
		seq++
	}

	finalCRC := ^crc
	return command.SetInfo(sess, finalCRC, uint32(total))
}
