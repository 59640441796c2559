// README: Failure categories shared by every store-backed module.
package types

import "errors"

// ErrStoreFailure marks transport or constraint failures from the profile or
// match store. Callers abandon the current scan for the affected candidate.
var ErrStoreFailure = errors.New("store failure")
