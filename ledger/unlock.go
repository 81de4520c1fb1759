// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import "github.com/DCL2019/cash2/core"

// UnlockSchedule is the set of pending UnlockJobs, indexed by height and
// by transaction hash so a job can be located either by "what fires at
// height H" (sync-progress driven) or by "what job belongs to this
// transaction" (onTransactionDeleted cleanup).
type UnlockSchedule struct {
	jobs     []core.UnlockJob
	byHeight map[uint32][]int
	byTxHash map[core.Hash][]int
}

// NewUnlockSchedule returns an empty schedule.
func NewUnlockSchedule() *UnlockSchedule {
	return &UnlockSchedule{
		byHeight: make(map[uint32][]int),
		byTxHash: make(map[core.Hash][]int),
	}
}

// Add inserts a new unlock job.
func (s *UnlockSchedule) Add(job core.UnlockJob) {
	idx := len(s.jobs)
	s.jobs = append(s.jobs, job)
	s.byHeight[job.UnlockHeight] = append(s.byHeight[job.UnlockHeight], idx)
	s.byTxHash[job.TransactionHash] = append(s.byTxHash[job.TransactionHash], idx)
}

// DueAt returns every job with UnlockHeight <= currentHeight, per
// spec.md §4.8. It does not remove them; call RemoveDueAt with the same
// height after processing them.
func (s *UnlockSchedule) DueAt(currentHeight uint32) []core.UnlockJob {
	var due []core.UnlockJob
	for _, j := range s.jobs {
		if j.UnlockHeight <= currentHeight {
			due = append(due, j)
		}
	}
	return due
}

// RemoveByHash deletes every job for a given transaction hash, used by
// onTransactionDeleted.
func (s *UnlockSchedule) RemoveByHash(hash core.Hash) {
	indexes := s.byTxHash[hash]
	if len(indexes) == 0 {
		return
	}
	toRemove := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		toRemove[i] = true
	}
	s.rebuild(toRemove)
}

// RemoveByContainer deletes every job belonging to the given container,
// used by DeleteAddress once the container has been unsubscribed: the
// original's deleteContainerFromUnlockTransactionJobs counterpart.
func (s *UnlockSchedule) RemoveByContainer(container core.TransferContainer) {
	toRemove := make(map[int]bool)
	for i, j := range s.jobs {
		if j.Container == container {
			toRemove[i] = true
		}
	}
	s.rebuild(toRemove)
}

// RemoveDueAt deletes every job with UnlockHeight <= currentHeight,
// mirroring DueAt, and is called right after the caller has processed the
// jobs DueAt returned.
func (s *UnlockSchedule) RemoveDueAt(currentHeight uint32) {
	toRemove := make(map[int]bool)
	for i, j := range s.jobs {
		if j.UnlockHeight <= currentHeight {
			toRemove[i] = true
		}
	}
	s.rebuild(toRemove)
}

func (s *UnlockSchedule) rebuild(toRemove map[int]bool) {
	if len(toRemove) == 0 {
		return
	}
	kept := make([]core.UnlockJob, 0, len(s.jobs)-len(toRemove))
	for i, j := range s.jobs {
		if !toRemove[i] {
			kept = append(kept, j)
		}
	}
	s.jobs = kept
	s.byHeight = make(map[uint32][]int)
	s.byTxHash = make(map[core.Hash][]int)
	for i, j := range s.jobs {
		s.byHeight[j.UnlockHeight] = append(s.byHeight[j.UnlockHeight], i)
		s.byTxHash[j.TransactionHash] = append(s.byTxHash[j.TransactionHash], i)
	}
}

// Reset drops every job, used by shutdown().
func (s *UnlockSchedule) Reset() {
	s.jobs = nil
	s.byHeight = make(map[uint32][]int)
	s.byTxHash = make(map[core.Hash][]int)
}
