package eventstream

import "errors"

// ErrNilEvent indicates a nil training event payload was provided to a publisher.
var ErrNilEvent = errors.New("nil training event")
