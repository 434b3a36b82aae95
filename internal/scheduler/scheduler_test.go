package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestParseTimes(t *testing.T) {
	times, err := ParseTimes(" 13:00, 08:30 ,")
	if err != nil {
		t.Fatal(err)
	}
	if len(times) != 2 || times[0] != (Clock{8, 30}) || times[1] != (Clock{13, 0}) {
		t.Fatalf("times = %v", times)
	}
	if got := Labels(times); got[0] != "8:30" || got[1] != "13:00" {
		t.Errorf("labels = %v", got)
	}

	if times, err := ParseTimes(""); err != nil || len(times) != 0 {
		t.Errorf("empty = %v, %v", times, err)
	}
	if _, err := ParseTimes("25:00"); err == nil {
		t.Error("expected error for invalid hour")
	}
}

func TestNext(t *testing.T) {
	taipei := time.FixedZone("CST", 8*3600)
	s := New([]Clock{{8, 30}, {13, 0}}, taipei, nil)

	cases := []struct {
		from, want time.Time
	}{
		{time.Date(2024, 5, 1, 7, 0, 0, 0, taipei), time.Date(2024, 5, 1, 8, 30, 0, 0, taipei)},
		{time.Date(2024, 5, 1, 8, 30, 0, 0, taipei), time.Date(2024, 5, 1, 13, 0, 0, 0, taipei)},
		{time.Date(2024, 5, 1, 23, 0, 0, 0, taipei), time.Date(2024, 5, 2, 8, 30, 0, 0, taipei)},
		// 00:00 UTC is 08:00 in Taipei.
		{time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 1, 8, 30, 0, 0, taipei)},
	}
	for _, tc := range cases {
		if got := s.Next(tc.from); !got.Equal(tc.want) {
			t.Errorf("Next(%v) = %v, want %v", tc.from, got, tc.want)
		}
	}
}

func TestStartRunsJobAndStops(t *testing.T) {
	fired := make(chan time.Time, 4)
	s := New([]Clock{{9, 0}}, time.UTC, func(_ context.Context, at time.Time) {
		select {
		case fired <- at:
		default:
		}
	})
	s.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
	s.after = func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	s.Start(context.Background())
	select {
	case at := <-fired:
		if at.Hour() != 9 {
			t.Errorf("fired at %v", at)
		}
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
	s.Stop()
	s.Stop()
}

func TestStartWithoutTimesIsNoop(t *testing.T) {
	s := New(nil, time.UTC, func(context.Context, time.Time) { t.Error("job must not run") })
	s.Start(context.Background())
	s.Stop()
}
