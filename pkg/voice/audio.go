// Package voice holds the audio helpers shared by speech-to-text and
// text-to-speech: media type sniffing, the silent fallback clip and the
// optional ffmpeg transcode.
package voice

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"time"
)

const (
	MediaWAV  = "audio/wav"
	MediaMPEG = "audio/mpeg"
)

// DetectMediaType sniffs WAV and MP3 headers. Anything else is reported as
// fallback.
func DetectMediaType(b []byte, fallback string) string {
	switch {
	case len(b) >= 12 && bytes.Equal(b[:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WAVE")):
		return MediaWAV
	case len(b) >= 3 && bytes.Equal(b[:3], []byte("ID3")):
		return MediaMPEG
	case len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0:
		return MediaMPEG
	}
	return fallback
}

// SilentWAV renders a mono 16-bit PCM clip of silence. It is served when
// speech synthesis is unavailable so the client still gets playable audio.
func SilentWAV(d time.Duration, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	samples := int(d.Seconds() * float64(sampleRate))
	dataLen := samples * channels * bitsPerSample / 8

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*bitsPerSample/8))
	binary.Write(buf, binary.LittleEndian, uint16(channels*bitsPerSample/8))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}

// DefaultSilence is the clip used when synthesis fails.
func DefaultSilence() []byte {
	return SilentWAV(600*time.Millisecond, 16000)
}

// CacheKey identifies synthesized audio for a piece of text.
func CacheKey(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
