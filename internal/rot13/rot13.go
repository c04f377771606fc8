// Package rot13 implements the ROT-13 letter substitution: Latin letters
// rotate 13 positions within their case, everything else passes through.
// Because 13 is half of 26 the transform is its own inverse.
package rot13

// Transform returns the ROT-13 image of s. Output length always equals
// input length; bytes outside A-Z and a-z (including multi-byte UTF-8
// sequences) are copied unchanged.
func Transform(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b >= 'a' && b <= 'z':
			out[i] = 'a' + (b-'a'+13)%26
		case b >= 'A' && b <= 'Z':
			out[i] = 'A' + (b-'A'+13)%26
		default:
			out[i] = b
		}
	}
	return string(out)
}
