// Package hub fans accepted log events out to live push subscribers.
//
// Every subscriber owns a bounded frame queue. Publishing never blocks on
// a slow consumer beyond a short send deadline: a subscriber whose queue
// stays full past the deadline is dropped from the set, and delivery to
// the remaining subscribers continues. Dropped or departed subscribers
// keep no server-side state; reconnecting is entirely the consumer's
// responsibility.
package hub
