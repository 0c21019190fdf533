// Package reconcile turns a batch of raw operation rows into validated, time-ordered heats.
//
// Processing is pure and synchronous: rows are grouped by heat, ordered for time resolution,
// anchored to absolute UTC wall-clock times, checked against the routing rules and measured.
// Accepted heats then receive a per-caster, per-production-day casting sequence.
// Problems are returned as data in models.Result; nothing here logs or panics on bad input.
package reconcile
