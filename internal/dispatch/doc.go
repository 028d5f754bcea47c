// Package dispatch fans a confirmed presence event out to every configured
// deployment: Discord channel messages, raw webhooks, and the lower-priority
// log stream.
//
// Delivery is best-effort and at-most-once. A failure at one destination is
// logged at warning level and never aborts delivery to the others, and the
// log stream is routed independently so event-destination failures cannot
// block it.
package dispatch
