// Package catalog implements the register stage: every Parquet batch file
// is exposed as a DuckDB view named after its document type.
//
// The default binding attaches the first batch file of a type to the view
// and never revisits it; views are created with IF NOT EXISTS, so
// re-registering is a no-op. The glob binding attaches every batch of the
// type through a wildcard scan instead.
package catalog
