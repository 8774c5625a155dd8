// Package columnar implements the convert stage: line-delimited JSON
// documents are read in bounded row batches and each batch is written as
// an independent Parquet file "<type>_chunk_<n>.parquet".
//
// Every batch infers its own schema from its own rows ([InferSchema]).
// Batches of the same document are never reconciled, so two batches may
// disagree on a column's type or on which columns exist.
package columnar
