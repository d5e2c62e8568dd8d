// Package mocks provides in-memory test doubles for the store
// interfaces and the transactional boundary, so service tests run
// against a real data model without a database.
package mocks
