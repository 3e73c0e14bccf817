// Package jobs runs fetch/filter/materialize pipelines as background
// jobs with pollable progress.
//
// A Registry owns an in-memory map of run records keyed by opaque
// tokens. Start methods validate parameters synchronously, insert a
// Pending record, and hand the pipeline to a goroutine; callers poll
// Status until the record turns Completed or Failed. Failures stay
// inside their record, concurrent runs never affect each other.
package jobs
