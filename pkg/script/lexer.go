package script

import "strings"

// stripComments removes every `/* ... */` block from src, replacing its
// span with spaces so that source offsets of the surrounding text are
// unaffected (keeps error locations accurate without needing a separate
// offset-remapping table).
func stripComments(src string) string {
	var b strings.Builder
	i := 0
	for i < len(src) {
		if i+1 < len(src) && src[i] == '/' && src[i+1] == '*' {
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				// Unterminated comment: blank out to EOF.
				for ; i < len(src); i++ {
					b.WriteByte(' ')
				}
				break
			}
			span := end + 4
			for j := 0; j < span; j++ {
				if src[i+j] == '\n' {
					b.WriteByte('\n')
				} else {
					b.WriteByte(' ')
				}
			}
			i += span
			continue
		}
		b.WriteByte(src[i])
		i++
	}
	return b.String()
}
