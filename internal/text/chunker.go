package text

// Split cuts text into contiguous, non-overlapping chunks of at most
// maxChunkSize characters (runes). The last chunk may be shorter. Splitting is
// deterministic: the same input always yields the same chunks, and
// concatenating the result in order reproduces the input exactly.
//
// Chunk indices are positional: chunk i of the returned slice is chunk i all
// the way through embedding and indexing.
func Split(text string, maxChunkSize int) []string {
	if text == "" || maxChunkSize <= 0 {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+maxChunkSize-1)/maxChunkSize)

	for start := 0; start < len(runes); start += maxChunkSize {
		end := start + maxChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}
