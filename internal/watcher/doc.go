// Package watcher reports new files appearing in a directory.
//
// A Watcher subscribes to fsnotify events for one directory, keeps the
// entries whose base name matches a glob pattern, and coalesces bursts of
// create and write operations per path over a debounce window. A path is
// delivered on Events once its merged operations include a create, which
// covers both files written in place and files moved into the directory.
//
// Close stops the subscription without dropping what was already seen:
// pending creates are still handed to Events before the channel closes, so
// a consumer should keep reading until it does.
//
// Delivery is best effort: a producer that pauses longer than the debounce
// window may still be observed mid-write.
package watcher
