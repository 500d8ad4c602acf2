// Cache for short-lived lookups (chat administrator status, image text extraction results), with per-namespace expiry and purging.
//
// Includes an interface and implementations using redis and in-process memory.
//
// Stored values are strings; a Get which misses returns the empty string, so callers which need to cache an empty result must encode it.
package cachestore
