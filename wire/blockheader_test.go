package wire

import "testing"

var genesisAdjacentHeader = []byte{
	1, 0, 0, 0, 5, 159, 141, 74, 195, 4, 19, 253, 127, 1, 148, 149, 222, 143, 237, 24, 27,
	124, 186, 34, 123, 241, 216, 166, 203, 239, 86, 108, 0, 0, 0, 0, 233, 233, 109, 115,
	249, 241, 6, 200, 176, 73, 10, 24, 28, 209, 102, 159, 255, 179, 239, 72, 185, 225, 10,
	14, 219, 74, 174, 208, 207, 59, 18, 12, 170, 7, 195, 79, 255, 255, 0, 29, 14, 171, 58,
	61,
}

func TestBlockHeaderParseAndSerialize(t *testing.T) {
	h, err := ParseBlockHeader(genesisAdjacentHeader, true)
	if err != nil {
		t.Fatalf("ParseBlockHeader: %v", err)
	}

	out := h.Serialize()
	if len(out) != len(genesisAdjacentHeader) {
		t.Fatalf("serialized length = %d, want %d", len(out), len(genesisAdjacentHeader))
	}
	for i := range out {
		if out[i] != genesisAdjacentHeader[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, out[i], genesisAdjacentHeader[i])
		}
	}
}

func TestBlockHeaderTooShort(t *testing.T) {
	_, err := ParseBlockHeader(genesisAdjacentHeader[:60], true)
	if err == nil {
		t.Fatal("expected error parsing a truncated header")
	}
}

func TestValidPoWHeader(t *testing.T) {
	h := &BlockHeader{
		Version:   2,
		Timestamp: 1347149007,
		Bits:      476726600,
		Nonce:     240236131,
	}
	copy(h.PrevBlockHash[:], []byte{
		61, 8, 52, 163, 234, 98, 255, 92, 186, 170, 164, 90, 56, 131, 46, 171, 52, 239,
		104, 223, 166, 65, 183, 217, 36, 6, 53, 63, 0, 0, 0, 0,
	})
	copy(h.MerkleRoot[:], []byte{
		45, 107, 6, 225, 181, 124, 4, 88, 86, 174, 58, 59, 113, 215, 174, 42, 209, 149,
		142, 110, 166, 53, 244, 88, 6, 76, 228, 77, 7, 10, 189, 126,
	})

	if !h.Validate() {
		t.Fatal("expected header to pass proof-of-work validation")
	}
}

func TestInvalidPoWHeader(t *testing.T) {
	h := &BlockHeader{
		Version:   2,
		Timestamp: 1347149007,
		Bits:      476726600,
		Nonce:     123123,
	}
	copy(h.PrevBlockHash[:], []byte{
		61, 8, 52, 163, 234, 98, 255, 92, 186, 170, 164, 90, 56, 131, 46, 171, 52, 239,
		104, 223, 166, 65, 183, 217, 36, 6, 53, 63, 0, 0, 0, 0,
	})
	copy(h.MerkleRoot[:], []byte{
		45, 107, 6, 225, 181, 124, 4, 88, 86, 174, 58, 59, 113, 215, 174, 42, 209, 149,
		142, 110, 166, 53, 244, 88, 6, 76, 228, 77, 7, 10, 189, 126,
	})

	if h.Validate() {
		t.Fatal("expected header to fail proof-of-work validation")
	}
}
