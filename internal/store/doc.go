// Package store owns the durable copy of the current day schedule.
//
// It supports two drivers:
//   - file: one JSON file, replaced wholesale on every Save
//   - sqlite: a small database, replaced transactionally on every Save
package store
