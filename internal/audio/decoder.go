package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// decoder produces a signed 16-bit little-endian interleaved PCM byte
// stream. Length is the total output byte count, or -1 when unknown.
// Seek offsets are in output bytes.
type decoder interface {
	io.ReadSeeker
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// newDecoder picks a decoder by file extension.
func newDecoder(f *os.File) (decoder, error) {
	switch ext := strings.ToLower(filepath.Ext(f.Name())); ext {
	case ".mp3":
		return newMP3Stream(f)
	case ".wav":
		return newWAVStream(f)
	case ".flac":
		return newFLACStream(f)
	case ".ogg":
		return newOGGStream(f)
	default:
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
}

// pcmTail holds output bytes produced but not yet consumed, for decoders
// whose native unit (frame, float block) is larger than one Read.
type pcmTail struct {
	buf []byte
}

func (t *pcmTail) drain(p []byte) int {
	n := copy(p, t.buf)
	t.buf = t.buf[n:]
	return n
}

func (t *pcmTail) stash(raw []byte, written int) {
	if written < len(raw) {
		t.buf = raw[written:]
	}
}

func (t *pcmTail) reset() { t.buf = nil }

func clampS16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// clampSeek bounds an output byte offset to [0, total] for the given
// whence, without frame alignment; callers align as needed.
func clampSeek(pos, offset, total int64, whence int) int64 {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = pos + offset
	case io.SeekEnd:
		next = total + offset
	}
	if next < 0 {
		next = 0
	}
	if next > total {
		next = total
	}
	return next
}

// --- MP3 ---

type mp3Stream struct {
	dec *mp3.Decoder
}

func newMP3Stream(f *os.File) (*mp3Stream, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return &mp3Stream{dec: dec}, nil
}

func (d *mp3Stream) Read(p []byte) (int, error) { return d.dec.Read(p) }
func (d *mp3Stream) Seek(offset int64, whence int) (int64, error) {
	return d.dec.Seek(offset, whence)
}
func (d *mp3Stream) Length() int64   { return d.dec.Length() }
func (d *mp3Stream) SampleRate() int { return d.dec.SampleRate() }

// go-mp3 upmixes mono to stereo, so output is always two channels.
func (d *mp3Stream) ChannelCount() int { return 2 }

// --- WAV ---

type wavStream struct {
	file       *os.File
	tail       pcmTail
	pos        int64
	totalBytes int64
	pcmStart   int64
	sampleRate int
	channels   int
	srcDepth   int   // source bits per sample
	srcFrame   int64 // source bytes per sample frame
}

func newWAVStream(f *os.File) (*wavStream, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	depth := int(dec.BitDepth)
	srcFrame := int64(channels) * int64(depth) / 8
	totalFrames := dec.PCMLen() / srcFrame

	// The file reader now sits at the first PCM byte.
	pcmStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locating WAV PCM start: %w", err)
	}

	return &wavStream{
		file:       f,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		srcDepth:   depth,
		srcFrame:   srcFrame,
		totalBytes: totalFrames * int64(channels) * 2,
		pcmStart:   pcmStart,
	}, nil
}

func (d *wavStream) Read(p []byte) (int, error) {
	if n := d.tail.drain(p); n > 0 {
		d.pos += int64(n)
		return n, nil
	}

	srcBytes := d.srcDepth / 8
	want := len(p) / 2
	if want == 0 {
		want = 1
	}
	src := make([]byte, want*srcBytes)
	n, err := io.ReadFull(d.file, src)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	samples := n / srcBytes
	if samples == 0 {
		return 0, io.EOF
	}

	raw := make([]byte, samples*2)
	for i := range samples {
		off := i * srcBytes
		var v int
		switch d.srcDepth {
		case 8:
			// 8-bit WAV is unsigned
			v = (int(src[off]) - 128) << 8
		case 16:
			v = int(int16(binary.LittleEndian.Uint16(src[off:])))
		case 24:
			s := int32(src[off]) | int32(src[off+1])<<8 | int32(src[off+2])<<16
			if s&0x800000 != 0 {
				s |= ^0xFFFFFF
			}
			v = int(s >> 8)
		case 32:
			v = int(int32(binary.LittleEndian.Uint32(src[off:])) >> 16)
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(clampS16(v)))
	}

	written := copy(p, raw)
	d.tail.stash(raw, written)
	d.pos += int64(written)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return written, err
}

func (d *wavStream) Seek(offset int64, whence int) (int64, error) {
	next := clampSeek(d.pos, offset, d.totalBytes, whence)

	frame := next / (int64(d.channels) * 2)
	if _, err := d.file.Seek(d.pcmStart+frame*d.srcFrame, io.SeekStart); err != nil {
		return d.pos, err
	}

	d.tail.reset()
	d.pos = next
	return next, nil
}

func (d *wavStream) Length() int64     { return d.totalBytes }
func (d *wavStream) SampleRate() int   { return d.sampleRate }
func (d *wavStream) ChannelCount() int { return d.channels }

// --- FLAC ---

type flacStream struct {
	stream     *flac.Stream
	tail       pcmTail
	pos        int64
	totalBytes int64
	sampleRate int
	channels   int
	bps        int
}

func newFLACStream(f *os.File) (*flacStream, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	return &flacStream{
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   channels,
		bps:        int(info.BitsPerSample),
		totalBytes: int64(info.NSamples) * int64(channels) * 2,
	}, nil
}

func (d *flacStream) Read(p []byte) (int, error) {
	if n := d.tail.drain(p); n > 0 {
		d.pos += int64(n)
		return n, nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	nSamples := int(frame.Subframes[0].NSamples)
	raw := make([]byte, nSamples*d.channels*2)
	for i := range nSamples {
		for ch := range d.channels {
			v := int(frame.Subframes[ch].Samples[i])
			switch {
			case d.bps > 16:
				v >>= d.bps - 16
			case d.bps < 16:
				v <<= 16 - d.bps
			}
			off := (i*d.channels + ch) * 2
			binary.LittleEndian.PutUint16(raw[off:], uint16(clampS16(v)))
		}
	}

	written := copy(p, raw)
	d.tail.stash(raw, written)
	d.pos += int64(written)
	return written, nil
}

func (d *flacStream) Seek(offset int64, whence int) (int64, error) {
	next := clampSeek(d.pos, offset, d.totalBytes, whence)

	sample := uint64(next / (int64(d.channels) * 2))
	if _, err := d.stream.Seek(sample); err != nil {
		return d.pos, err
	}

	d.tail.reset()
	d.pos = next
	return next, nil
}

func (d *flacStream) Length() int64     { return d.totalBytes }
func (d *flacStream) SampleRate() int   { return d.sampleRate }
func (d *flacStream) ChannelCount() int { return d.channels }

// --- OGG Vorbis ---

type oggStream struct {
	reader     *oggvorbis.Reader
	tail       pcmTail
	pos        int64
	totalBytes int64
	sampleRate int
	channels   int
}

func newOGGStream(f *os.File) (*oggStream, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}

	channels := reader.Channels()
	return &oggStream{
		reader:     reader,
		sampleRate: reader.SampleRate(),
		channels:   channels,
		totalBytes: reader.Length() * int64(channels) * 2,
	}, nil
}

func (d *oggStream) Read(p []byte) (int, error) {
	if n := d.tail.drain(p); n > 0 {
		d.pos += int64(n)
		return n, nil
	}

	if len(p) == 0 {
		return 0, nil
	}

	// Decode at least one sample so sub-sample reads cannot turn into a
	// spurious end of stream; the tail keeps the remainder.
	want := len(p) / 2
	if want == 0 {
		want = 1
	}
	samples := make([]float32, want)
	n, err := d.reader.Read(samples)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	raw := make([]byte, n*2)
	for i := range n {
		s := samples[i]
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(s*32767)))
	}

	written := copy(p, raw)
	d.tail.stash(raw, written)
	d.pos += int64(written)
	return written, err
}

func (d *oggStream) Seek(offset int64, whence int) (int64, error) {
	next := clampSeek(d.pos, offset, d.totalBytes, whence)

	if err := d.reader.SetPosition(next / (int64(d.channels) * 2)); err != nil {
		return d.pos, err
	}
	d.tail.reset()
	d.pos = next
	return next, nil
}

func (d *oggStream) Length() int64     { return d.totalBytes }
func (d *oggStream) SampleRate() int   { return d.sampleRate }
func (d *oggStream) ChannelCount() int { return d.channels }
