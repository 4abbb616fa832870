package session

// Package session keeps the per-chat selection record between the link
// message and the keyboard callbacks. Records expire after a fixed TTL; an
// expired record reads exactly like a missing one.
