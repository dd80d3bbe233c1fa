package ncmdump

// buildKeyBox derives the 256-entry permutation table from the raw
// audio key with an RC4-style key schedule: identity table, then one
// scrambling pass of swaps. The swap order and the modular index
// arithmetic must match the encoder exactly; the result is a bijection
// on 0..255 because every mutation is a swap. key must be non-empty.
func buildKeyBox(key []byte) [256]byte {
	var box [256]byte
	for i := 0; i < 256; i++ {
		box[i] = byte(i)
	}
	j := 0
	for i := 0; i < 256; i++ {
		j = (j + int(box[i]) + int(key[i%len(key)])) & 0xff
		box[i], box[j] = box[j], box[i]
	}
	return box
}

// decryptAudio XORs data in place with the keystream derived from box.
// The keystream byte for position p depends only on p mod 256, so the
// payload may be processed in one pass or in chunks of any multiple of
// 256 without changing the output. XOR makes it its own inverse.
func decryptAudio(data []byte, box *[256]byte) {
	for p := range data {
		j := (p + 1) & 0xff
		data[p] ^= box[(int(box[j])+int(box[(int(box[j])+j)&0xff]))&0xff]
	}
}
