package postgres

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Embeddings are stored as BYTEA values of little-endian IEEE 754 float64
// components, 8 bytes each. A nil vector round-trips as NULL. The format
// matches the SQLite store so dumps can be moved between backends.

func serializeEmbedding(embedding []float64) []byte {
	if len(embedding) == 0 {
		return nil
	}

	buf := make([]byte, len(embedding)*8)
	for i, v := range embedding {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func deserializeEmbedding(buf []byte) ([]float64, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("corrupt embedding value: %d bytes is not a multiple of 8", len(buf))
	}

	embedding := make([]float64, len(buf)/8)
	for i := range embedding {
		embedding[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return embedding, nil
}
