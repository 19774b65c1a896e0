package textutil

import "strings"

// soundexCodes maps consonants to their Soundex digit. Vowels and the letters
// h, w, y act as separators and carry no code.
var soundexCodes = map[byte]byte{
	'b': '1', 'f': '1', 'p': '1', 'v': '1',
	'c': '2', 'g': '2', 'j': '2', 'k': '2', 'q': '2', 's': '2', 'x': '2', 'z': '2',
	'd': '3', 't': '3',
	'l': '4',
	'm': '5', 'n': '5',
	'r': '6',
}

// PhoneticKey derives a four-character Soundex-style key from a token. The key
// keeps the first letter and encodes following consonants by sound class, so
// "mohamed" and "mohammed" produce the same key. Returns "" for tokens without
// an ASCII letter prefix; such tokens fall back to exact-token blocking.
func PhoneticKey(token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" || token[0] < 'a' || token[0] > 'z' {
		return ""
	}

	var b strings.Builder
	b.Grow(4)
	b.WriteByte(token[0])
	lastCode := soundexCodes[token[0]]

	for i := 1; i < len(token) && b.Len() < 4; i++ {
		ch := token[i]
		code, ok := soundexCodes[ch]
		if !ok {
			// h and w are transparent in Soundex; vowels reset the run.
			if ch != 'h' && ch != 'w' {
				lastCode = 0
			}
			continue
		}
		if code == lastCode {
			continue
		}
		b.WriteByte(code)
		lastCode = code
	}

	key := b.String()
	for len(key) < 4 {
		key += "0"
	}
	return key
}
