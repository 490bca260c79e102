package hexconv

// Halfbyte maps a hexadecimal digit to its value, and anything else to 0xFF.
var Halfbyte = [256]uint8{}

func init() {
	for i := range Halfbyte {
		Halfbyte[i] = 0xFF
	}

	for c := '0'; c <= '9'; c++ {
		Halfbyte[c] = uint8(c - '0')
	}

	for c := 'a'; c <= 'f'; c++ {
		Halfbyte[c] = uint8(c-'a') + 10
	}

	for c := 'A'; c <= 'F'; c++ {
		Halfbyte[c] = uint8(c-'A') + 10
	}
}
