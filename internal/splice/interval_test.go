package splice

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		in   []Interval
		want []Interval
	}{
		{
			name: "empty",
			in:   nil,
			want: nil,
		},
		{
			name: "overlapping pair and a distant one",
			in:   []Interval{{1000, 1200}, {1150, 1400}, {5000, 5100}},
			want: []Interval{{1000, 1400}, {5000, 5100}},
		},
		{
			name: "unsorted input",
			in:   []Interval{{5000, 5100}, {1150, 1400}, {1000, 1200}},
			want: []Interval{{1000, 1400}, {5000, 5100}},
		},
		{
			name: "touching intervals merge",
			in:   []Interval{{0, 100}, {100, 200}},
			want: []Interval{{0, 200}},
		},
		{
			name: "one ms gap stays apart",
			in:   []Interval{{0, 100}, {101, 200}},
			want: []Interval{{0, 100}, {101, 200}},
		},
		{
			name: "contained interval",
			in:   []Interval{{0, 1000}, {200, 300}},
			want: []Interval{{0, 1000}},
		},
		{
			name: "empty duration interval",
			in:   []Interval{{500, 500}},
			want: []Interval{{500, 500}},
		},
		{
			name: "same start keeps the longer end",
			in:   []Interval{{10, 50}, {10, 20}},
			want: []Interval{{10, 50}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeDoesNotModifyInput(t *testing.T) {
	in := []Interval{{300, 400}, {0, 100}}
	Merge(in)
	if in[0] != (Interval{300, 400}) || in[1] != (Interval{0, 100}) {
		t.Errorf("input was reordered: %v", in)
	}
}

func randomIntervals(r *rand.Rand, n, span int) []Interval {
	out := make([]Interval, n)
	for i := range out {
		start := r.IntN(span)
		out[i] = Interval{StartMs: start, EndMs: start + r.IntN(200)}
	}
	return out
}

func TestMergeProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 42))

	for round := 0; round < 200; round++ {
		in := randomIntervals(r, r.IntN(30), 3000)
		merged := Merge(in)

		if again := Merge(merged); !cmp.Equal(merged, again) {
			t.Fatalf("round %d: merge not idempotent: %v vs %v", round, merged, again)
		}

		for i := 1; i < len(merged); i++ {
			if merged[i-1].EndMs >= merged[i].StartMs {
				t.Fatalf("round %d: %v and %v are not disjoint", round, merged[i-1], merged[i])
			}
		}

		for _, iv := range in {
			covered := false
			for _, m := range merged {
				if m.StartMs <= iv.StartMs && iv.EndMs <= m.EndMs {
					covered = true
					break
				}
			}
			if !covered {
				t.Fatalf("round %d: %v not covered by %v", round, iv, merged)
			}
		}
	}
}

func TestWiden(t *testing.T) {
	tests := []struct {
		name     string
		in       Interval
		lookback int
		padding  int
		total    int
		want     Interval
	}{
		{"plain", Interval{1000, 1200}, 100, 50, 5000, Interval{900, 1250}},
		{"floored at zero", Interval{30, 200}, 100, 50, 5000, Interval{0, 250}},
		{"capped at total", Interval{4900, 4980}, 100, 50, 5000, Interval{4800, 5000}},
		{"no widening", Interval{10, 20}, 0, 0, 5000, Interval{10, 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Widen(tt.in, tt.lookback, tt.padding, tt.total)
			if got != tt.want {
				t.Errorf("Widen(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlanWidensBeforeMerging(t *testing.T) {
	// 1200 and 1300 are 100ms apart; widening makes them overlap
	raw := []Interval{{1000, 1200}, {1300, 1500}, {4000, 4100}}
	got := Plan(raw, PlanOptions{LookbackMs: 100, PaddingMs: 50}, 4120)
	want := []Interval{{900, 1550}, {3900, 4120}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanSkipsIntervalsPastTheEnd(t *testing.T) {
	got := Plan([]Interval{{6000, 6100}}, PlanOptions{}, 5000)
	if len(got) != 0 {
		t.Errorf("Plan() = %v, want nothing", got)
	}
}

func TestKept(t *testing.T) {
	tests := []struct {
		name  string
		cuts  []Interval
		total int
		want  []Interval
	}{
		{"no cuts", nil, 1000, []Interval{{0, 1000}}},
		{"middle cut", []Interval{{200, 300}}, 1000, []Interval{{0, 200}, {300, 1000}}},
		{"cut at both ends", []Interval{{0, 100}, {900, 1000}}, 1000, []Interval{{100, 900}}},
		{"everything cut", []Interval{{0, 1000}}, 1000, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Kept(tt.cuts, tt.total)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Kept() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKeptAndCutsCoverTimeline(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	const total = 2000

	for round := 0; round < 100; round++ {
		cuts := Plan(randomIntervals(r, r.IntN(15), total), PlanOptions{}, total)
		kept := Kept(cuts, total)

		seen := make([]int, total)
		for _, set := range [][]Interval{cuts, kept} {
			for _, iv := range set {
				for ms := iv.StartMs; ms < iv.EndMs; ms++ {
					seen[ms]++
				}
			}
		}
		for ms, n := range seen {
			if n != 1 {
				t.Fatalf("round %d: ms %d classified %d times (cuts %v)", round, ms, n, cuts)
			}
		}
		if TotalDuration(kept)+TotalDuration(cuts) != total {
			t.Fatalf("round %d: durations do not add up", round)
		}
	}
}
