// Package naming holds the file naming conventions that join the pipeline
// stages together.
//
// A document type is the stable join key: artifact "<type>.gz" expands to
// plain document "<type>[.ext]", which is split into batch files
// "<type>_chunk_<n>.parquet", which are registered as catalog view "<type>".
package naming
