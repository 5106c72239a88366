// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides a readiness waiter used to pace the echo loop:
// instead of sleeping a fixed interval between sweeps, the loop can block
// until any registered socket becomes readable or the interval elapses.
// The sweep itself still polls every connection; readiness only shortens
// the idle pause.
package reactor
