// Package cache gates garage fetches behind a freshness window.
//
// The Controller owns the last fetched garage set and the time it was last checked.
// Calls to Refresh inside the window return the cached set without touching the
// network. Once the window has passed, exactly one fetch cycle runs no matter how
// many callers arrive, and all of them receive its result. Failed cycles are logged
// and produce an empty set; Refresh never returns an error.
package cache
