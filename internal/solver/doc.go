// Package solver drives captcha resolution end to end: it walks an attempt
// plan built from preprocessing pipelines and recognizer variants, collects
// every reading as a candidate, and picks the final answer.
//
// # Attempt plan
//
// A plan entry pairs one pipeline with one recognizer configuration. The
// plan orders entries by descending recognizer priority; within a priority
// level the configured order is kept. Resolution walks the plan in order,
// preprocessing each distinct pipeline at most once per image, and stops as
// soon as a candidate reaches the confidence threshold. When the plan runs
// out the highest-confidence candidate wins; exact ties go to the earlier
// attempt.
//
// A resolution moves through the states pending, attempting, and finally
// done (threshold met) or exhausted (plan completed without a confident
// reading). Transform and engine failures never abort a resolution; they
// are recorded as zero-confidence candidates and the walk continues. Only
// an empty plan is fatal, and only caller cancellation interrupts the walk.
//
// # Statistics
//
// Every finished resolution lands in a Stats tracker: total count,
// successes, cumulative confidence, cumulative attempts. Counters move
// together under one lock, snapshots are consistent, and reset is an
// explicit operation. Cancelled resolutions are never recorded.
package solver
