// Package service contains the business logic of the annotation task
// engine: allocation of work items to reviewers, review state updates,
// quality-control comparison against the reference reviewer, ownership
// transfer, task queue reads, statistics, and administration.
//
// Services coordinate stores through a store.Transactor so that every
// multi-step mutation runs inside a single database transaction. They
// hold no state of their own beyond their collaborators and are safe for
// concurrent use.
package service
