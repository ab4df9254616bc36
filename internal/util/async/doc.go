// Package async provides utilities for parallel task execution with
// error collection.
//
// [RunParallel] executes independent operations concurrently and joins
// every error. It runs the checks of a probe round and the resource
// operations of a provision in parallel.
package async
