package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/calvinalkan/tabedit/internal/tab"
)

// Snapshot layout (little endian):
//
//	magic   [4]byte  "TABS"
//	version uint16
//	length  uint32   payload size
//	crc     uint32   IEEE checksum of the payload
//	payload          song, see appendSong
const (
	snapshotMagic      = "TABS"
	snapshotVersion    = 1
	snapshotHeaderSize = 14
)

// Per-level presence markers in the payload.
const (
	slotHole    = 0
	slotPresent = 1
)

const (
	flagPageBreak = 1 << iota
	flagRepeat
)

var (
	errSnapshotMagic    = errors.New("invalid snapshot magic")
	errSnapshotVersion  = errors.New("snapshot version mismatch")
	errSnapshotChecksum = errors.New("snapshot checksum mismatch")
	errSnapshotShort    = errors.New("snapshot truncated")
	errSnapshotTrailing = errors.New("trailing bytes after snapshot payload")
)

// MarshalSnapshot encodes song into the binary snapshot format. Unlike the
// text grammar the snapshot keeps every hole and rest exactly, so
// UnmarshalSnapshot(MarshalSnapshot(s)) is [tab.Song.Equal] to s.
func MarshalSnapshot(song *tab.Song) []byte {
	payload := appendSong(nil, song)

	out := make([]byte, snapshotHeaderSize, snapshotHeaderSize+len(payload))
	copy(out[0:4], snapshotMagic)
	binary.LittleEndian.PutUint16(out[4:6], snapshotVersion)
	binary.LittleEndian.PutUint32(out[6:10], uint32(len(payload)))
	binary.LittleEndian.PutUint32(out[10:14], crc32.ChecksumIEEE(payload))

	return append(out, payload...)
}

// UnmarshalSnapshot decodes a snapshot. Every failure wraps [ErrCorrupt].
// The returned song has no name.
func UnmarshalSnapshot(data []byte) (*tab.Song, error) {
	if len(data) < snapshotHeaderSize {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, errSnapshotShort)
	}

	if string(data[0:4]) != snapshotMagic {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, errSnapshotMagic)
	}

	if v := binary.LittleEndian.Uint16(data[4:6]); v != snapshotVersion {
		return nil, fmt.Errorf("%w: %w: got %d, want %d", ErrCorrupt, errSnapshotVersion, v, snapshotVersion)
	}

	length := binary.LittleEndian.Uint32(data[6:10])
	payload := data[snapshotHeaderSize:]

	if uint64(len(payload)) < uint64(length) {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, errSnapshotShort)
	}

	if uint64(len(payload)) > uint64(length) {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, errSnapshotTrailing)
	}

	if crc32.ChecksumIEEE(payload) != binary.LittleEndian.Uint32(data[10:14]) {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, errSnapshotChecksum)
	}

	r := &snapReader{data: payload}

	song := r.song()
	if r.err == nil && r.off != len(r.data) {
		r.fail(errSnapshotTrailing)
	}

	if r.err != nil {
		return nil, fmt.Errorf("%w: %w (offset %d)", ErrCorrupt, r.err, r.off)
	}

	return song, nil
}

// appendSong writes the payload:
//
//	tuning     uint8
//	annotation string
//	tracks     uint8 count, then per slot: marker, name, measures
//	measures   uint16 count, then per slot: marker, flags, annotation, beats
//	beats      uint8 count, then per slot: marker, annotation, notes
//	notes      uint8 string bitmask, then fret and articulation per set bit
//
// Strings are a uvarint length followed by UTF-8 bytes.
func appendSong(buf []byte, song *tab.Song) []byte {
	buf = append(buf, byte(song.Tuning))
	buf = appendString(buf, song.Annotation)
	buf = append(buf, byte(song.TrackCount()))

	for t := 1; t <= song.TrackCount(); t++ {
		track := song.Track(t)
		if track == nil {
			buf = append(buf, slotHole)

			continue
		}

		buf = append(buf, slotPresent)
		buf = appendString(buf, track.Name)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(track.MeasureCount()))

		for m := 1; m <= track.MeasureCount(); m++ {
			buf = appendMeasure(buf, track.Measure(m))
		}
	}

	return buf
}

func appendMeasure(buf []byte, measure *tab.Measure) []byte {
	if measure == nil {
		return append(buf, slotHole)
	}

	var flags byte
	if measure.PageBreak {
		flags |= flagPageBreak
	}

	if measure.Repeat {
		flags |= flagRepeat
	}

	buf = append(buf, slotPresent, flags)
	buf = appendString(buf, measure.Annotation)
	buf = append(buf, byte(measure.BeatCount()))

	for b := 1; b <= measure.BeatCount(); b++ {
		beat := measure.Beat(b)
		if beat == nil {
			buf = append(buf, slotHole)

			continue
		}

		buf = append(buf, slotPresent)
		buf = appendString(buf, beat.Annotation)

		notes := beat.Notes()

		var mask byte
		for _, n := range notes {
			mask |= 1 << (n.String - 1)
		}

		buf = append(buf, mask)

		for _, n := range notes {
			buf = append(buf, byte(n.Fret), byte(n.Articulation))
		}
	}

	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))

	return append(buf, s...)
}

// snapReader reads the payload, remembering the first failure. Once err is
// set every read returns a zero value.
type snapReader struct {
	data []byte
	off  int
	err  error
}

func (r *snapReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *snapReader) byte() byte {
	if r.err != nil {
		return 0
	}

	if r.off >= len(r.data) {
		r.fail(errSnapshotShort)

		return 0
	}

	b := r.data[r.off]
	r.off++

	return b
}

func (r *snapReader) uint16() int {
	if r.err != nil {
		return 0
	}

	if len(r.data)-r.off < 2 {
		r.fail(errSnapshotShort)

		return 0
	}

	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2

	return int(v)
}

func (r *snapReader) string() string {
	if r.err != nil {
		return ""
	}

	n, size := binary.Uvarint(r.data[r.off:])
	if size <= 0 {
		r.fail(errSnapshotShort)

		return ""
	}

	r.off += size

	if uint64(len(r.data)-r.off) < n {
		r.fail(errSnapshotShort)

		return ""
	}

	s := string(r.data[r.off : r.off+int(n)])
	r.off += int(n)

	return s
}

func (r *snapReader) present() bool {
	switch r.byte() {
	case slotHole:
		return false
	case slotPresent:
		return true
	default:
		r.fail(fmt.Errorf("%w: bad slot marker", ErrMalformed))

		return false
	}
}

func (r *snapReader) song() *tab.Song {
	song := &tab.Song{}

	tuning := int(r.byte())
	if tuning >= len(tab.Tunings) {
		r.fail(fmt.Errorf("%w: tuning %d", tab.ErrUnknownTuning, tuning))
	}

	song.Tuning = tuning
	song.Annotation = r.string()

	count := int(r.byte())
	if count > tab.MaxTracks {
		r.fail(fmt.Errorf("%w: %d tracks", tab.ErrTooManyTracks, count))
	}

	for t := 1; t <= count && r.err == nil; t++ {
		if !r.present() {
			continue
		}

		track, err := song.EnsureTrack(t)
		if err != nil {
			r.fail(err)

			break
		}

		track.Name = r.string()
		r.measures(track)
	}

	// A valid song has at least one track and never ends in a hole.
	if r.err == nil && (count == 0 || song.TrackCount() != count) {
		r.fail(fmt.Errorf("%w: missing last track", ErrMalformed))
	}

	return song
}

func (r *snapReader) measures(track *tab.Track) {
	count := r.uint16()
	if count > tab.MaxMeasures {
		r.fail(fmt.Errorf("%w: %d measures", tab.ErrTooManyMeasures, count))
	}

	for m := 1; m <= count && r.err == nil; m++ {
		if !r.present() {
			continue
		}

		measure, err := track.EnsureMeasure(m)
		if err != nil {
			r.fail(err)

			return
		}

		flags := r.byte()
		measure.PageBreak = flags&flagPageBreak != 0
		measure.Repeat = flags&flagRepeat != 0
		measure.Annotation = r.string()

		r.beats(measure)
	}

	if r.err == nil && (count == 0 || track.MeasureCount() != count) {
		r.fail(fmt.Errorf("%w: missing last measure", ErrMalformed))
	}
}

func (r *snapReader) beats(measure *tab.Measure) {
	count := int(r.byte())
	if count > tab.MaxBeatsPerMeasure {
		r.fail(fmt.Errorf("%w: %d beats", tab.ErrMeasureFull, count))
	}

	for b := 1; b <= count && r.err == nil; b++ {
		if !r.present() {
			continue
		}

		beat, err := measure.EnsureBeat(b)
		if err != nil {
			r.fail(err)

			return
		}

		beat.Annotation = r.string()

		mask := r.byte()

		for s := 1; s <= tab.NumStrings && r.err == nil; s++ {
			if mask&(1<<(s-1)) == 0 {
				continue
			}

			fret, art := int(r.byte()), tab.Articulation(r.byte())

			err := beat.SetNote(tab.Note{String: s, Fret: fret, Articulation: art})
			if err != nil {
				r.fail(err)
			}
		}

		if mask>>tab.NumStrings != 0 {
			r.fail(fmt.Errorf("%w: note mask %#x", tab.ErrStringRange, mask))
		}
	}

	if r.err == nil && (count == 0 || measure.BeatCount() != count) {
		r.fail(fmt.Errorf("%w: measure without a present last beat", ErrMalformed))
	}
}
