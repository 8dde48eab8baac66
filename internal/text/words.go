package text

import (
	"strings"

	"mvdan.cc/xurls/v2"
)

// Words splits on the space byte only. Runs of spaces never produce empty
// words.
func Words(input string) []string {
	words := make([]string, 0, strings.Count(input, " ")+1)

	for {
		pos := strings.IndexByte(input, ' ')
		if pos < 0 {
			break
		}

		if pos > 0 {
			words = append(words, input[:pos])
		}
		input = input[pos+1:]
	}

	if input != "" {
		words = append(words, input)
	}

	return words
}

// Links returns the URLs with an explicit scheme found in input, in order of
// appearance.
func Links(input string) []string {
	return xurls.Strict().FindAllString(input, -1)
}
