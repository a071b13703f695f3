package wire

import "testing"

func TestHeadersParseAndSerialize(t *testing.T) {
	buf := []byte{
		1, 0, 0, 128, 32, 169, 255, 173, 21, 40, 44, 123, 115, 129, 193, 143, 57, 71, 116, 199,
		75, 244, 113, 169, 45, 227, 42, 180, 111, 0, 0, 0, 0, 0, 0, 0, 0, 109, 105, 250, 106,
		92, 126, 17, 171, 97, 243, 124, 194, 172, 252, 249, 166, 202, 8, 231, 136, 21, 107,
		106, 136, 64, 241, 195, 82, 179, 236, 159, 63, 155, 22, 96, 100, 105, 90, 32, 25, 11,
		42, 241, 166, 0,
	}

	headers, err := ParseHeaders(buf)
	if err != nil {
		t.Fatalf("ParseHeaders: %v", err)
	}

	out := headers.Serialize()
	if len(out) != len(buf) {
		t.Fatalf("serialized length = %d, want %d", len(out), len(buf))
	}
	for i := range out {
		if out[i] != buf[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, out[i], buf[i])
		}
	}
}

func TestHeadersMalformedPayload(t *testing.T) {
	buf := []byte{
		1, 0, 0, 128, 32, 169, 255, 173, 21, 40, 44, 123, 115, 129, 193, 143, 57, 71, 116, 199,
		75, 244, 113, 169, 45, 227, 42, 180, 111, 0, 0, 0, 0, 0, 0, 0, 0, 109, 105, 250, 106,
		92, 126, 17, 171, 9,
	}

	if _, err := ParseHeaders(buf); err == nil {
		t.Fatal("expected error on truncated headers payload")
	}
}
