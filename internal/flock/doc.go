// Package flock provides cross-platform file locking utilities.
//
// The ledger writer holds an exclusive lock on the score ledger while it
// rewrites the file, so concurrent scoring runs against the same sweep fail
// fast instead of interleaving rows. Locks are exclusive and non-blocking,
// and work on both Unix and Windows systems.
//
// Usage:
//
//	file, _ := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
//	if err := flock.Exclusive(file.Fd()); err != nil {
//	    // Lock not acquired - file is in use
//	}
//	defer flock.Unlock(file.Fd())
package flock
