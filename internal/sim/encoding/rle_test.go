package encoding

import "testing"

func TestRLE_RoundTrip(t *testing.T) {
	in := make([]uint16, 0, 256)
	in = append(in, 0, 0, 0, 900, 900, 3)
	for i := 0; i < 244; i++ {
		in = append(in, 0)
	}
	in = append(in, 65535, 12, 12, 12, 1, 0)
	if len(in) != 256 {
		t.Fatalf("fixture len=%d", len(in))
	}

	enc := EncodeRLE(in)
	out, err := DecodeRLE(enc, len(in))
	if err != nil {
		t.Fatalf("DecodeRLE: %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, out[i], in[i])
		}
	}
}

func TestRLE_RejectsLengthMismatch(t *testing.T) {
	enc := EncodeRLE([]uint16{1, 1, 2})
	if _, err := DecodeRLE(enc, 4); err == nil {
		t.Fatalf("expected short decode error")
	}
	if _, err := DecodeRLE(enc, 2); err == nil {
		t.Fatalf("expected overflow error")
	}
	if _, err := DecodeRLE("!!", 1); err == nil {
		t.Fatalf("expected base64 error")
	}
}
