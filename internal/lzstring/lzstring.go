// Package lzstring implements the URI-safe variant of the LZ-String
// compression format used to publish the lecture catalog.
package lzstring

import (
	"errors"
	"strings"
	"unicode/utf16"
)

// uriSafeAlphabet maps 6-bit values to characters.
const uriSafeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+-$"

// ErrCorrupt is returned when the input is not a valid LZ-String stream.
var ErrCorrupt = errors.New("lzstring: corrupt input")

var uriSafeValues = func() [256]int {
	var v [256]int
	for i := range v {
		v[i] = -1
	}
	for i := 0; i < len(uriSafeAlphabet); i++ {
		v[uriSafeAlphabet[i]] = i
	}
	return v
}()

// DecompressFromEncodedURIComponent decodes a string produced by
// CompressToEncodedURIComponent. Spaces are read as '+', matching the way
// browsers mangle the alphabet in query strings.
func DecompressFromEncodedURIComponent(input string) (string, error) {
	if input == "" {
		return "", nil
	}
	input = strings.ReplaceAll(input, " ", "+")

	values := make([]int, len(input))
	for i := 0; i < len(input); i++ {
		v := uriSafeValues[input[i]]
		if v < 0 {
			return "", ErrCorrupt
		}
		values[i] = v
	}

	units, err := decompress(values, 32)
	if err != nil {
		return "", err
	}
	return string(utf16.Decode(units)), nil
}

// bitReader walks the input LSB-first within each emitted value, starting
// from the value's high bit.
type bitReader struct {
	values   []int
	reset    int
	val      int
	position int
	index    int
}

func (r *bitReader) next(i int) int {
	if i < len(r.values) {
		return r.values[i]
	}
	return 0
}

func (r *bitReader) read(n int) int {
	bits, power := 0, 1
	for i := 0; i < n; i++ {
		resb := r.val & r.position
		r.position >>= 1
		if r.position == 0 {
			r.position = r.reset
			r.val = r.next(r.index)
			r.index++
		}
		if resb > 0 {
			bits |= power
		}
		power <<= 1
	}
	return bits
}

func decompress(values []int, reset int) ([]uint16, error) {
	r := &bitReader{values: values, reset: reset, position: reset, index: 1}
	r.val = r.next(0)

	// Entries 0..2 are the control codes.
	dictionary := make([][]uint16, 3, 64)
	enlargeIn := 4
	numBits := 3

	var c []uint16
	switch r.read(2) {
	case 0:
		c = []uint16{uint16(r.read(8))}
	case 1:
		c = []uint16{uint16(r.read(16))}
	case 2:
		return nil, nil
	default:
		return nil, ErrCorrupt
	}
	dictionary = append(dictionary, c)
	w := c
	result := append([]uint16(nil), c...)

	for {
		if r.index > len(values) {
			return nil, ErrCorrupt
		}

		code := r.read(numBits)
		switch code {
		case 0:
			dictionary = append(dictionary, []uint16{uint16(r.read(8))})
			code = len(dictionary) - 1
			enlargeIn--
		case 1:
			dictionary = append(dictionary, []uint16{uint16(r.read(16))})
			code = len(dictionary) - 1
			enlargeIn--
		case 2:
			return result, nil
		}

		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}

		var entry []uint16
		switch {
		case code < len(dictionary) && code >= 3:
			entry = dictionary[code]
		case code == len(dictionary):
			entry = concat(w, w[0])
		default:
			return nil, ErrCorrupt
		}
		result = append(result, entry...)

		dictionary = append(dictionary, concat(w, entry[0]))
		enlargeIn--
		w = entry

		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}
	}
}

func concat(w []uint16, c uint16) []uint16 {
	out := make([]uint16, len(w)+1)
	copy(out, w)
	out[len(w)] = c
	return out
}
