// Package domain contains the core domain entities and value objects for savesync.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (file system, logging) and
// contains only pure business logic.
//
// # Entities
//
//   - [Save]: The full contents of a save directory (info, globals, party table)
//   - [Error]: A classified persistence failure (not found, parse, I/O)
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
//
// A loaded [Save] is treated as a snapshot. Callers that want to change it
// take a [Save.Clone], modify the copy, and write the copy back.
package domain
