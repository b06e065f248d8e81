package utils

import "unicode"

// SplitText cuts text into chunks of at most chunkSize runes, overlapping by
// overlap runes. A cut prefers the last whitespace in the back half of the chunk.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if chunkSize <= 0 || len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 || overlap < 0 {
		step = chunkSize
		overlap = 0
	}

	var chunks []string
	for i := 0; i < len(runes); {
		end := i + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[i:]))
			break
		}

		for j := end; j > i+chunkSize/2; j-- {
			if unicode.IsSpace(runes[j]) {
				end = j
				break
			}
		}
		chunks = append(chunks, string(runes[i:end]))

		next := end - overlap
		if next <= i {
			next = i + step
		}
		i = next
	}
	return chunks
}
