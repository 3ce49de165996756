// Package catalog fetches candidate pitch events from the public MLB
// catalogs.
//
// StatsAPI reads per-game play-by-play feeds and Statcast reads per
// pitcher-season search exports. Both normalize into Candidate values
// carrying the fields the resolvers compare (pitch number, pitch type code,
// pitcher name, and speed/spin/movement features), and both share a
// Transport that applies a token bucket rate limit, a circuit breaker and
// bounded exponential-backoff retries. Every error returned by Fetch wraps
// services.ErrFetchFailure unless the key itself is malformed.
package catalog
