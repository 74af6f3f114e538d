package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeRLE encodes a sequence of cell values into base64(varint pairs).
// The pairs are (value, run_len) repeated.
func EncodeRLE(vals []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	i := 0
	for i < len(vals) {
		v := vals[i]
		run := 1
		for j := i + 1; j < len(vals) && vals[j] == v; j++ {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(v))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE reverses EncodeRLE. The decoded length must equal want.
func DecodeRLE(b64 string, want int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, 0, want)
	for i := 0; i < len(raw); {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if v > 0xFFFF {
			return nil, fmt.Errorf("value too large: %d", v)
		}
		if run == 0 || run > uint64(want-len(out)) {
			return nil, fmt.Errorf("run %d overflows %d cells", run, want)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(v))
		}
	}
	if len(out) != want {
		return nil, fmt.Errorf("decoded %d cells, want %d", len(out), want)
	}
	return out, nil
}
