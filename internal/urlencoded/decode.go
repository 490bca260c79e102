package urlencoded

import (
	"errors"

	"github.com/indigo-web/ember/internal/hexconv"
	"github.com/indigo-web/utils/uf"
)

var ErrBadSequence = errors.New("invalid urlencoded sequence")

// Decode decodes a urlencoded string, treating pluses as spaces. The decoded
// value is appended to buff, which is returned back for re-use; the resulting
// string aliases its memory.
func Decode(str string, buff []byte) (decoded string, newBuff []byte, err error) {
	begin := len(buff)

	for i := 0; i < len(str); i++ {
		switch c := str[i]; c {
		case '%':
			if i+2 >= len(str) {
				return "", buff, ErrBadSequence
			}

			l, r := hexconv.Halfbyte[str[i+1]], hexconv.Halfbyte[str[i+2]]
			if l == 0xFF || r == 0xFF {
				return "", buff, ErrBadSequence
			}

			buff = append(buff, (l<<4)|r)
			i += 2
		case '+':
			buff = append(buff, ' ')
		default:
			buff = append(buff, c)
		}
	}

	return uf.B2S(buff[begin:]), buff, nil
}

// DecodePath decodes %XX sequences only, leaving pluses intact. Request paths,
// unlike query strings, give the plus no special meaning.
func DecodePath(str string, buff []byte) (decoded string, newBuff []byte, err error) {
	begin := len(buff)

	for i := 0; i < len(str); i++ {
		c := str[i]
		if c != '%' {
			buff = append(buff, c)
			continue
		}

		if i+2 >= len(str) {
			return "", buff, ErrBadSequence
		}

		l, r := hexconv.Halfbyte[str[i+1]], hexconv.Halfbyte[str[i+2]]
		if l == 0xFF || r == 0xFF {
			return "", buff, ErrBadSequence
		}

		buff = append(buff, (l<<4)|r)
		i += 2
	}

	return uf.B2S(buff[begin:]), buff, nil
}
