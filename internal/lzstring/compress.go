package lzstring

import (
	"strings"
	"unicode/utf16"
)

type bitWriter struct {
	bitsPerChar int
	val         int
	position    int
	out         strings.Builder
}

func (b *bitWriter) bit(v int) {
	b.val = (b.val << 1) | (v & 1)
	if b.position == b.bitsPerChar-1 {
		b.position = 0
		b.out.WriteByte(uriSafeAlphabet[b.val])
		b.val = 0
		return
	}
	b.position++
}

// bits writes the low n bits of value, least significant first.
func (b *bitWriter) bits(value, n int) {
	for i := 0; i < n; i++ {
		b.bit(value & 1)
		value >>= 1
	}
}

func (b *bitWriter) flush() {
	for {
		b.val <<= 1
		if b.position == b.bitsPerChar-1 {
			b.out.WriteByte(uriSafeAlphabet[b.val])
			return
		}
		b.position++
	}
}

// unitKey turns a run of UTF-16 code units into a map key without losing
// unpaired surrogates.
func unitKey(units []uint16) string {
	buf := make([]byte, 0, len(units)*2)
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return string(buf)
}

// CompressToEncodedURIComponent compresses s into the URI-safe alphabet.
func CompressToEncodedURIComponent(s string) string {
	units := utf16.Encode([]rune(s))

	dictionary := make(map[string]int)
	toCreate := make(map[string]bool)
	var w []uint16
	enlargeIn := 2
	dictSize := 3
	numBits := 2

	b := &bitWriter{bitsPerChar: 6}

	grow := func() {
		enlargeIn--
		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}
	}

	emit := func(w []uint16) {
		key := unitKey(w)
		if toCreate[key] {
			if w[0] < 256 {
				b.bits(0, numBits)
				b.bits(int(w[0]), 8)
			} else {
				b.bits(1, numBits)
				b.bits(int(w[0]), 16)
			}
			grow()
			delete(toCreate, key)
		} else {
			b.bits(dictionary[key], numBits)
		}
		grow()
	}

	for _, c := range units {
		ck := unitKey([]uint16{c})
		if _, ok := dictionary[ck]; !ok {
			dictionary[ck] = dictSize
			dictSize++
			toCreate[ck] = true
		}

		wc := append(append(make([]uint16, 0, len(w)+1), w...), c)
		if _, ok := dictionary[unitKey(wc)]; ok {
			w = wc
			continue
		}
		emit(w)
		dictionary[unitKey(wc)] = dictSize
		dictSize++
		w = []uint16{c}
	}

	if len(w) > 0 {
		emit(w)
	}

	// End of stream marker.
	b.bits(2, numBits)
	b.flush()
	return b.out.String()
}
