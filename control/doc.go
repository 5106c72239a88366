// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection for the echo server.
//
// Provides concurrent-safe state handling primitives including:
//   - A metrics registry the echo loop publishes counters into
//   - Named debug probes evaluated on demand
//   - Platform probes (descriptor limits, CPU count)
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
