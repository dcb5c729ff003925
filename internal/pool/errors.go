package pool

import "errors"

var ErrLeaseFinalized = errors.New("pool: lease already finalized")
var ErrInvalidLease = errors.New("pool: zero value lease")
var ErrInvalidCapacity = errors.New("pool: capacity must be greater than 0")
var ErrNilCommand = errors.New("pool: factory returned a nil command")
var ErrNilFactory = errors.New("pool: nil factory")
