// Package cache implements the three-layer semantic cache that fronts the
// question answering pipeline:
//
//   - the embedding layer memoizes text-to-vector conversions keyed on the
//     hash of the exact text plus the embedding model id,
//   - the search layer memoizes ranked similarity queries keyed on the text
//     hash, the result limit and the user filter,
//   - the response layer memoizes generated answers and serves them to later
//     questions whose embeddings are cosine-similar above a threshold, with
//     an optional strict check that the underlying data has not changed.
//
// All three layers persist through the same relational store, honor lazy TTL
// expiry, and degrade to pass-through when the store is unhealthy: a cache
// problem may cost tokens, it must never cost an answer.
package cache
