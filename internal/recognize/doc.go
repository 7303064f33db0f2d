// Package recognize wraps OCR engines behind a small interface and runs
// individual recognition attempts against preprocessed rasters.
//
// An Engine is a blocking text reader. The Runner adds everything an attempt
// needs around it: a per-attempt timeout that abandons stuck engine calls
// without blocking the caller, cleanup of the raw engine output, confidence
// normalization into the 0..100 range, and a penalty for readings that stray
// outside the recognizer's whitelist.
//
// Engine failures are soft. A missing or crashing engine surfaces as
// ErrEngineUnavailable, an overran attempt as ErrEngineTimeout; callers
// record either outcome and continue with their remaining attempts.
package recognize
