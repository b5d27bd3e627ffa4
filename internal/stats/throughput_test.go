package stats

import "testing"

func TestThroughputTracksTotal(t *testing.T) {
	th := NewThroughput()
	th.Add(10)
	th.Add(20)
	th.Add(5)
	if got := th.Total(); got != 35 {
		t.Fatalf("Total() = %d, want 35", got)
	}
}

func TestThroughputNotExpiredImmediately(t *testing.T) {
	th := NewThroughput()
	th.Add(1)
	if th.expired() {
		t.Fatal("expired() true immediately after Add")
	}
}
