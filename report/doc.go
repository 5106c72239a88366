// Package report
// Author: momentics <momentics@gmail.com>
//
// Sinks for the statistics snapshot emitted on every client disconnect.
package report
