package text

import "strings"

const (
	minPrintable = 32
	maxPrintable = 126
)

// Displays without full font support only render printable ASCII.
var quoteReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
)

// Sanitize swaps curly quotes for straight ones and drops every byte outside
// the printable ASCII range.
func Sanitize(input string) string {
	replaced := quoteReplacer.Replace(input)

	var b strings.Builder
	b.Grow(len(replaced))

	for i := range len(replaced) {
		c := replaced[i]
		if c < minPrintable || c > maxPrintable {
			continue
		}
		b.WriteByte(c)
	}

	return b.String()
}
