package naming

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// File suffixes and the batch marker.
const (
	ArtifactSuffix = ".gz"
	BatchSuffix    = ".parquet"
	ChunkMarker    = "_chunk_"
)

// IsArtifact reports whether name is a compressed artifact.
func IsArtifact(name string) bool {
	return strings.HasSuffix(name, ArtifactSuffix)
}

// PlainName returns the plain document name for an artifact: the ".gz"
// suffix stripped, everything else kept ("records.json.gz" -> "records.json").
func PlainName(artifact string) string {
	return strings.TrimSuffix(filepath.Base(artifact), ArtifactSuffix)
}

// DocumentType returns the type of a plain document: the base name minus its
// extension, if any ("records.txt" -> "records", "docsA" -> "docsA").
func DocumentType(document string) string {
	base := filepath.Base(document)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// MatchesSuffix reports whether document's extension is one of suffixes.
// An empty suffix matches names without an extension. Comparison is
// case-insensitive.
func MatchesSuffix(document string, suffixes []string) bool {
	ext := strings.ToLower(filepath.Ext(filepath.Base(document)))
	for _, s := range suffixes {
		if strings.ToLower(s) == ext {
			return true
		}
	}
	return false
}

// BatchName returns the batch file name for the index-th batch of docType.
func BatchName(docType string, index int) string {
	return fmt.Sprintf("%s%s%d%s", docType, ChunkMarker, index, BatchSuffix)
}

// IsBatch reports whether name is a columnar batch file.
func IsBatch(name string) bool {
	return strings.HasSuffix(name, BatchSuffix)
}

// BatchType returns the document type of a batch file: the base name
// truncated at the first "_chunk_" marker. Names without the marker lose
// only their ".parquet" suffix.
func BatchType(batch string) string {
	base := filepath.Base(batch)
	if i := strings.Index(base, ChunkMarker); i >= 0 {
		return base[:i]
	}
	return strings.TrimSuffix(base, BatchSuffix)
}

// BatchIndex parses the batch index out of a batch file name. ok is false
// when the name does not follow the "<type>_chunk_<n>.parquet" form.
func BatchIndex(batch string) (index int, ok bool) {
	base := strings.TrimSuffix(filepath.Base(batch), BatchSuffix)
	i := strings.LastIndex(base, ChunkMarker)
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(base[i+len(ChunkMarker):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
