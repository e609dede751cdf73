// Package engine defines the contract between the batch harness and the
// query engines it drives.
//
// An engine is selected once at startup as a Profile. The harness hands it
// raw query sources to compile and later evaluates each CompiledQuery
// against a fresh ExecutionContext. The harness never looks inside compiled
// queries or engine values.
//
// Every profile exposes the same reserved names to query documents:
//
//	var       external variables, one string field per binding
//	input     the context item, when one is bound
//	now       the context's current time (RFC 3339)
//	base_uri  the context's base URI
package engine
