package rate

import "errors"

// ErrRedisUnavailable wraps Redis transport failures. Limit checks fail
// closed on it: the caller gets allowed=false together with the error.
var ErrRedisUnavailable = errors.New("redis unavailable")
