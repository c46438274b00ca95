// Package orm maps model operations onto Kubernetes API calls: manifest
// encoding and decoding, get/filter/save/delete semantics with optimistic
// concurrency, and lazy paged result sets.
package orm
