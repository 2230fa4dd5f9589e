// Package audioinfo probes audio artifacts for playback duration.
//
// Only enough of the RIFF/WAVE container is parsed to recover the sample
// rate and data length; anything unparseable falls back to a byte-size
// heuristic so duration probing is never a hard failure.
package audioinfo

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// fallbackBytesPerSecond approximates 44.1kHz 16-bit stereo PCM, the
// format the synthesis engine emits.
const fallbackBytesPerSecond = 176000

var (
	errNotRIFF     = errors.New("not a RIFF/WAVE file")
	errNoFmtChunk  = errors.New("fmt chunk not found")
	errNoDataChunk = errors.New("data chunk not found")
)

// Probe is the result of a duration measurement.
type Probe struct {
	// Seconds is the measured or estimated audio duration.
	Seconds float64

	// Estimated is true when the duration came from the byte-size
	// heuristic rather than the container header. Callers should treat
	// this as a degraded (not failed) measurement.
	Estimated bool
}

// Duration measures the audio duration of the file at path. WAV headers
// are parsed exactly; any other or malformed content degrades to the
// size/bitrate estimate. An unreadable file returns an error.
func Duration(path string) (Probe, error) {
	f, err := os.Open(path)
	if err != nil {
		return Probe{}, fmt.Errorf("open audio file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if secs, err := wavDuration(f); err == nil {
		return Probe{Seconds: secs}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return Probe{}, fmt.Errorf("stat audio file: %w", err)
	}
	return Probe{
		Seconds:   float64(info.Size()) / fallbackBytesPerSecond,
		Estimated: true,
	}, nil
}

// wavDuration reads the RIFF header and walks chunks until both the fmt
// byte rate and the data length are known.
func wavDuration(r io.ReadSeeker) (float64, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return 0, err
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return 0, errNotRIFF
	}

	var byteRate uint32
	var dataLen uint32
	haveFmt, haveData := false, false

	for !(haveFmt && haveData) {
		var header [8]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			break
		}
		chunkID := string(header[0:4])
		chunkLen := binary.LittleEndian.Uint32(header[4:8])

		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return 0, errNoFmtChunk
			}
			var fmtChunk [16]byte
			if _, err := io.ReadFull(r, fmtChunk[:]); err != nil {
				return 0, err
			}
			byteRate = binary.LittleEndian.Uint32(fmtChunk[8:12])
			haveFmt = true
			// Skip any fmt extension bytes, honoring RIFF word alignment.
			skip := int64(chunkLen) - 16
			if chunkLen%2 == 1 {
				skip++
			}
			if skip > 0 {
				if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
					return 0, err
				}
			}
		case "data":
			dataLen = chunkLen
			haveData = true
			if !haveFmt {
				skip := int64(chunkLen)
				if chunkLen%2 == 1 {
					skip++
				}
				if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
					return 0, err
				}
			}
		default:
			skip := int64(chunkLen)
			if chunkLen%2 == 1 {
				skip++
			}
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return 0, err
			}
		}
	}

	if !haveFmt {
		return 0, errNoFmtChunk
	}
	if !haveData {
		return 0, errNoDataChunk
	}
	if byteRate == 0 {
		return 0, errNoFmtChunk
	}
	return float64(dataLen) / float64(byteRate), nil
}
