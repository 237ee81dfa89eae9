package serialize

import (
	"github.com/hugr-lab/airport-vtable/internal/msgpack"
)

// compressedContent is encoded as the two element array [length, data], where
// length is the uncompressed size and data the zstd frame.
type compressedContent struct {
	_msgpack struct{} `msgpack:",as_array"`

	Length uint32
	Data   string
}

// Content msgpack-encodes v, compresses it and wraps it as a compressed content
// array. It returns the serialized wrapper and the uncompressed payload size.
func (c *Compressor) Content(v any) ([]byte, int, error) {
	payload, err := msgpack.Encode(v)
	if err != nil {
		return nil, 0, err
	}
	compressed, err := c.Compress(payload)
	if err != nil {
		return nil, 0, err
	}
	out, err := msgpack.Encode(&compressedContent{
		Length: uint32(len(payload)),
		Data:   string(compressed),
	})
	if err != nil {
		return nil, 0, err
	}
	return out, len(payload), nil
}
