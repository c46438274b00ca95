// Package schema resolves cluster OpenAPI v3 schemas into normalized nodes
// and synthesizes typed model fields from them. Documents are fetched once
// per group/version and cached for the life of the process.
package schema
