// Package repository persists the blog documents in MongoDB.
package repository

import "time"

// Bounds for calls that reach the collection directly rather than through
// MongoRepository.
var (
	singleOpTimeout = 5 * time.Second
	multiOpTimeout  = 10 * time.Second
)
