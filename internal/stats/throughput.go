package stats

import "time"

// Throughput tracks a rolling bytes-per-second rate for a long-running
// encode or decode: a grid of one-second buckets, the oldest of which
// rolls off as time passes, following the teacher's bitrate counter but
// trimmed to the sum/average a byte-rate readout actually needs.
type Throughput struct {
	buckets    []int64
	sum        int64
	lastIdx    int64
	lastUnix   int64
	gridPeriod int64
}

const defaultThroughputGridNum = 5

// NewThroughput returns a Throughput with a defaultThroughputGridNum-wide,
// one-second-per-bucket rolling window.
func NewThroughput() *Throughput {
	return &Throughput{
		buckets:    make([]int64, defaultThroughputGridNum+1),
		gridPeriod: 1,
	}
}

func (t *Throughput) gridNum() int64 {
	return int64(len(t.buckets))
}

func (t *Throughput) expired() bool {
	return time.Now().Unix() > t.lastUnix+t.gridNum()*t.gridPeriod
}

// Add records n more bytes having just been produced or consumed.
func (t *Throughput) Add(n int) {
	now := time.Now().Unix()
	idx := now % (t.gridNum() * t.gridPeriod) / t.gridPeriod

	if now >= t.lastUnix+t.gridNum()*t.gridPeriod {
		for i := range t.buckets {
			t.buckets[i] = 0
		}
		t.buckets[idx] = int64(n)
		t.sum = int64(n)
		t.lastIdx = idx
		t.lastUnix = now
		return
	}

	if idx == t.lastIdx && now-t.lastUnix <= t.gridPeriod {
		t.buckets[idx] += int64(n)
		t.sum += int64(n)
		t.lastUnix = now
		return
	}

	virtual := idx
	if virtual <= t.lastIdx {
		virtual += t.gridNum()
	}
	for i := t.lastIdx + 1; i <= virtual; i++ {
		pos := i % t.gridNum()
		t.sum -= t.buckets[pos]
		t.buckets[pos] = 0
	}
	t.buckets[idx] += int64(n)
	t.sum += int64(n)
	t.lastIdx = idx
	t.lastUnix = now
}

// BytesPerSecond returns the current rolling average, 0 once the window
// has gone idle long enough to expire.
func (t *Throughput) BytesPerSecond() int64 {
	if t.expired() {
		return 0
	}
	// The most recent bucket may still be mid-second; excluding it from
	// the average keeps the rate from dipping every time Add starts a
	// fresh bucket.
	return (t.sum - t.buckets[t.lastIdx]) / (t.gridNum() - 1)
}

// Total returns the sum of the byte counts still inside the rolling
// window (buckets that have rolled off are no longer counted), or 0 once
// the window has gone idle long enough to expire.
func (t *Throughput) Total() int64 {
	if t.expired() {
		return 0
	}
	return t.sum
}
