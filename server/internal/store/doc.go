// Package store keeps the latest evaluation of every dataset in memory, with
// TTL eviction so datasets that stop reporting drop out of the API.
package store
