/*
Copyright © 2021 the PollySCC authors.
This file is part of PollySCC.

PollySCC is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

PollySCC is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with PollySCC.  If not, see <http://www.gnu.org/licenses/>.
*/

package pollyscc

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func date(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC)
}

func TestIntervals(t *testing.T) {
	start := date(2021, 1, 1, 0, 0)
	end := date(2021, 1, 1, 23, 59)

	windows := Intervals(start, end, time.Hour, false)
	if len(windows) != 24 {
		t.Fatalf("got %d windows, want 24", len(windows))
	}
	if !windows[0].Start.Equal(start) {
		t.Errorf("first window starts %v, want %v", windows[0].Start, start)
	}
	for i, w := range windows {
		if !w.End.Equal(w.Start.Add(time.Hour)) {
			t.Errorf("window %d is %v long, want 1h", i, w.End.Sub(w.Start))
		}
		if i > 0 && !w.Start.Equal(windows[i-1].End) {
			t.Errorf("window %d starts %v, want %v (contiguous)", i, w.Start, windows[i-1].End)
		}
	}
	if got, want := windows[23].End.Hour(), 0; got != want {
		t.Errorf("last window ends at hour %d, want %d (midnight)", got, want)
	}
}

func TestIntervalsRoundDown(t *testing.T) {
	start := date(2021, 1, 1, 1, 2)
	end := date(2021, 1, 1, 4, 0)

	got := Intervals(start, end, time.Hour, true)
	want := []Window{
		{date(2021, 1, 1, 1, 0), date(2021, 1, 1, 2, 0)},
		{date(2021, 1, 1, 2, 0), date(2021, 1, 1, 3, 0)},
		{date(2021, 1, 1, 3, 0), date(2021, 1, 1, 4, 0)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("windows mismatch (-want +got):\n%s", diff)
	}

	// Rounding never moves a window start later.
	unrounded := Intervals(start, end, time.Hour, false)
	for i := range got {
		if i >= len(unrounded) {
			break
		}
		if got[i].Start.After(unrounded[i].Start) {
			t.Errorf("window %d: rounded start %v is after unrounded start %v",
				i, got[i].Start, unrounded[i].Start)
		}
	}
}

func TestIntervalsNonPositive(t *testing.T) {
	start := date(2021, 1, 1, 0, 0)
	end := date(2021, 1, 2, 0, 0)
	for _, interval := range []time.Duration{0, -time.Hour} {
		if got := Intervals(start, end, interval, false); got != nil {
			t.Errorf("Intervals with interval %v returned %d windows, want none", interval, len(got))
		}
	}
}

func TestIntervalsPartialLast(t *testing.T) {
	// A span that is not a whole number of intervals still gets covered;
	// the last window extends past the end of available data.
	start := date(2021, 3, 5, 10, 0)
	end := date(2021, 3, 5, 12, 30)
	windows := Intervals(start, end, time.Hour, false)
	if len(windows) != 3 {
		t.Fatalf("got %d windows, want 3", len(windows))
	}
	if want := date(2021, 3, 5, 13, 0); !windows[2].End.Equal(want) {
		t.Errorf("last window ends %v, want %v", windows[2].End, want)
	}
}

func TestCalibrationWindows(t *testing.T) {
	day := func(hour, min int) time.Time { return date(2021, 1, 1, hour, min) }

	tests := []struct {
		name       string
		start, end time.Time
		want       []Window
	}{
		{
			name:  "full day",
			start: day(0, 0),
			end:   day(23, 59),
			want: []Window{
				{day(2, 31), day(2, 41)},
				{day(17, 31), day(17, 41)},
				{day(21, 31), day(21, 41)},
			},
		},
		{
			name:  "ten minute measurement",
			start: day(0, 0),
			end:   day(0, 10),
			want:  nil,
		},
		{
			name:  "exact slot boundaries are excluded",
			start: day(2, 31),
			end:   day(2, 41),
			want:  nil,
		},
		{
			name:  "slot strictly inside",
			start: day(2, 30),
			end:   day(2, 42),
			want:  []Window{{day(2, 31), day(2, 41)}},
		},
		{
			name:  "slot crossing the measurement end",
			start: day(2, 0),
			end:   day(2, 35),
			want:  nil,
		},
		{
			name:  "anchored to the day of the start",
			start: date(2021, 1, 1, 23, 0),
			end:   date(2021, 1, 2, 5, 0),
			want:  nil, // day-one slots are all before 23:00
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := CalibrationWindows(test.start, test.end)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("windows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
