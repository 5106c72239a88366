// Package pool
// Author: momentics <momentics@gmail.com>
//
// Scratch buffer provisioning for the echo loop's receive-steps.
// Buffers are either allocated fresh per step or recycled through a pool;
// in both cases their contents never outlive the echo write.
package pool
