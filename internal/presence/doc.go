// Package presence is the HTTP client for the Roblox web APIs sentinel
// polls: batched presence, per-server session details, user lookup, avatar
// thumbnails, friends, and group roles.
//
// Every method returns an error on transport failure, rate limiting, or a
// malformed body. Callers treat those errors as "skip this cycle": an
// unreachable data source never means an entity went offline.
package presence
