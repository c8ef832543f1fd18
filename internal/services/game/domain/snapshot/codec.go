// Package snapshot encodes match states into immutable byte snapshots.
//
// Snapshots back the undo stack and replay checkpoints. Encoding is plain JSON
// without HTML escaping so embedded raw payloads round-trip byte for byte;
// zstd compression is optional and detected on decode by its frame magic.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func zstdCodecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// Codec encodes and decodes snapshots. The zero value writes uncompressed JSON.
type Codec struct {
	Compress bool
}

// Encode serializes v.
func (c Codec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	if !c.Compress {
		return data, nil
	}
	encoder, _, err := zstdCodecs()
	if err != nil {
		return nil, fmt.Errorf("init zstd: %w", err)
	}
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decode deserializes data into v, decompressing zstd frames when present.
func (c Codec) Decode(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("decode snapshot: empty data")
	}
	if bytes.HasPrefix(data, zstdMagic) {
		_, decoder, err := zstdCodecs()
		if err != nil {
			return fmt.Errorf("init zstd: %w", err)
		}
		plain, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return fmt.Errorf("decompress snapshot: %w", err)
		}
		data = plain
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return nil
}
