package audio

import (
	"os"
	"time"
)

// ProbeDuration reports a file's playable length by opening its decoder and
// dividing the PCM byte count by the byte rate. Returns zero for sources of
// unknown length.
func ProbeDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec, err := newDecoder(f)
	if err != nil {
		return 0, err
	}

	total := dec.Length()
	if total < 0 {
		return 0, nil
	}
	bytesPerSec := dec.SampleRate() * dec.ChannelCount() * outputDepthBytes
	secs := float64(total) / float64(bytesPerSec)
	return time.Duration(secs * float64(time.Second)), nil
}
