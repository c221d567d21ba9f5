// Package ingest turns an uploaded CSV byte stream into typed equipment rows
// and a summary.
//
// The pipeline is: decode and lint the bytes, resolve the header to the five
// canonical columns, parse each row independently, and fold accepted rows
// into an Aggregator. Rows that fail numeric validation are counted, not
// fatal; the upload fails only when nothing is accepted.
package ingest
