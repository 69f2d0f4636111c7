package queue

import (
	"sync/atomic"
)

// Statistics tracks bridge activity.
type Statistics struct {
	enqueued     int64
	dequeued     int64
	rejectedWait int64
	peakDepth    int64
}

// NewStatistics creates a zeroed statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{}
}

// Enqueue records an enqueue that left depth items pending.
func (s *Statistics) Enqueue(depth int) {
	atomic.AddInt64(&s.enqueued, 1)
	for {
		peak := atomic.LoadInt64(&s.peakDepth)
		if int64(depth) <= peak || atomic.CompareAndSwapInt64(&s.peakDepth, peak, int64(depth)) {
			return
		}
	}
}

// Dequeue records an item handed to the consumer.
func (s *Statistics) Dequeue(int) {
	atomic.AddInt64(&s.dequeued, 1)
}

// RejectWait records a Next call refused with ErrWaiterBusy.
func (s *Statistics) RejectWait() {
	atomic.AddInt64(&s.rejectedWait, 1)
}

// Enqueued returns the total number of enqueued items.
func (s *Statistics) Enqueued() int64 { return atomic.LoadInt64(&s.enqueued) }

// Dequeued returns the total number of dequeued items.
func (s *Statistics) Dequeued() int64 { return atomic.LoadInt64(&s.dequeued) }

// RejectedWaits returns how many Next calls got ErrWaiterBusy.
func (s *Statistics) RejectedWaits() int64 { return atomic.LoadInt64(&s.rejectedWait) }

// PeakDepth returns the largest number of items pending at once.
func (s *Statistics) PeakDepth() int64 { return atomic.LoadInt64(&s.peakDepth) }

// StatsSummary is a point-in-time copy of Statistics.
type StatsSummary struct {
	Enqueued      int64 `json:"enqueued"`
	Dequeued      int64 `json:"dequeued"`
	RejectedWaits int64 `json:"rejected_waits"`
	PeakDepth     int64 `json:"peak_depth"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Enqueued:      s.Enqueued(),
		Dequeued:      s.Dequeued(),
		RejectedWaits: s.RejectedWaits(),
		PeakDepth:     s.PeakDepth(),
	}
}
