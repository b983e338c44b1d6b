// Package report renders run results as fixed-layout text: detection counts,
// per-stage timings, resource usage and alerts, plus batch and method
// comparison tables.
package report
