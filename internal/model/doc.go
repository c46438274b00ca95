// Package model defines the model abstraction: resource descriptors, the
// closed field-kind enumeration, and the registry that assembles model types
// at registration time.
//
// A model type is built once at registration (descriptor validation,
// explicit fields, schema-derived fields, injected identity fields) and is
// immutable afterwards, so request-handling code reads it without locking.
package model
