package buffers

// CalculateChunkSize returns how many of totalLength items belong to chunk
// chunkIndex when they are spread over numOfChunks chunks. Sizes differ by at
// most one and the larger chunks are the trailing ones.
func CalculateChunkSize(totalLength, numOfChunks, chunkIndex int) int {
	if numOfChunks <= 0 || chunkIndex < 0 || chunkIndex >= numOfChunks || totalLength <= 0 {
		return 0
	}
	base := totalLength / numOfChunks
	remainder := totalLength % numOfChunks
	if chunkIndex < numOfChunks-remainder {
		return base
	}
	return base + 1
}

// ceilDiv is ceil(a/b) for positive b.
func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
