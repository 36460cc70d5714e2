package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// lineChunkID hashes source:start:end into a 16-hex-character chunk id,
// deterministic across runs and hosts for identical inputs.
func lineChunkID(source string, start, end int) string {
	input := fmt.Sprintf("%s:%d:%d", source, start, end)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:16]
}

// groupChunkID hashes group_name:file_count into a 16-hex-character chunk
// id for the file-group strategies.
func groupChunkID(groupName string, fileCount int) string {
	input := fmt.Sprintf("%s:%d", groupName, fileCount)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:16]
}
