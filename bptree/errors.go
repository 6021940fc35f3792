package bptree

import "errors"

// ErrArenaUnavailable is returned by NewTree when no arena is supplied;
// a Tree cannot allocate its root (or any future node) without one.
var ErrArenaUnavailable = errors.New("bptree: arena unavailable")

// ErrInvalidFanout is returned by NewTree when the requested fan-out M
// falls outside [4, MaxFanout]. M < 4 cannot produce two non-empty
// halves on split (see splitLeaf/splitInternal); M > MaxFanout
// exceeds the Node arrays' fixed capacity.
var ErrInvalidFanout = errors.New("bptree: fanout out of range")
