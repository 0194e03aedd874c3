// Package inmemdb keeps drafts and submissions in process memory.
// It backs the "memory" draft backend and the tests.
package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/kaushal/core/submission"
)

type (
	DB struct {
		draft      *draftTable
		submission *submissionTable
	}

	draftTable struct {
		mutex sync.RWMutex
		table map[string][]byte
	}

	submissionTable struct {
		mutex sync.RWMutex
		table map[uuid.UUID]submission.Record
	}
)

func Open() *DB {
	return &DB{
		draft:      &draftTable{table: make(map[string][]byte)},
		submission: &submissionTable{table: make(map[uuid.UUID]submission.Record)},
	}
}
