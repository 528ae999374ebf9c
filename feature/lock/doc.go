// Package lock implements the database-backed distributed lock that coordinates
// crawl workers across replicas.
//
// The state machine per product is Unlocked -> Locked(owner) -> Unlocked via
// Release, or Locked(owner) -> Locked(newOwner) via expiry takeover. The TTL is
// the primary defense against a crashed worker leaking a permanent lock.
package lock
