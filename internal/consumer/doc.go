// Package consumer is the read side of the relay: it holds one push
// subscription to the server, mirrors events into a bounded local cache,
// and serves log queries from the cache while streaming or from direct
// point queries when the push channel is down. The consumer never fails a
// read just because the subscription died.
package consumer
