// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw TCP sockets for the echo loop. The listener is always non-blocking so
// that one accept attempt per loop iteration never stalls; accepted
// connections expose a SetNonblock capability and a tri-state receive so the
// loop above stays platform-independent. Platform code is strictly separated
// by build tags.

package transport
