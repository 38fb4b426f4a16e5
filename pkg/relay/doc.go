// Package relay implements the admission and dispatch core of the bot: a
// bounded FIFO admission gate in front of a single-occupancy dispatch slot.
//
// Invariants:
// - At most one LLM call is in flight at any instant.
// - The pending queue never exceeds its configured capacity; when full, new
//   submissions are dropped with an "overloaded" outcome and older tickets
//   are never evicted.
// - Every classified command produces exactly one terminal Outcome.
// - Tickets are serviced in arrival order, except that tickets older than the
//   configured max wait are discarded as stale when they reach the head.
// - Health and help commands bypass the queue and the slot entirely.
package relay
