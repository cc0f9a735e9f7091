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

import "time"

// Window is one [Start, End) time interval of a measurement.
type Window struct {
	Start, End time.Time
}

// calibrationPeriods holds the start of each daily polarization
// calibration slot performed by the instrument, as hours and minutes
// from midnight. Each slot lasts calibrationDuration.
var calibrationPeriods = [3]struct{ hour, minute int }{
	{2, 31},
	{17, 31},
	{21, 31},
}

const calibrationDuration = 10 * time.Minute

// Intervals splits the measurement span [start, end) into consecutive
// windows of the given length, in chronological order. If roundDown is
// true, each window start is first truncated to the top of its hour to
// match the instrument shift alignment; the first window can then begin
// before start and cover more than one interval of available data.
// A non-positive interval yields no windows.
func Intervals(start, end time.Time, interval time.Duration, roundDown bool) []Window {
	if interval <= 0 {
		return nil
	}
	var windows []Window
	for cursor := start; cursor.Before(end); {
		if roundDown {
			cursor = cursor.Truncate(time.Hour)
		}
		w := Window{Start: cursor, End: cursor.Add(interval)}
		windows = append(windows, w)
		cursor = w.End
	}
	return windows
}

// CalibrationWindows returns the daily calibration slots that fall
// strictly inside the measurement span [start, end), anchored to the
// calendar day of start. Slots touching or crossing the span boundary
// are dropped.
func CalibrationWindows(start, end time.Time) []Window {
	year, month, day := start.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, start.Location())

	var windows []Window
	for _, p := range calibrationPeriods {
		w := Window{
			Start: midnight.Add(time.Duration(p.hour)*time.Hour + time.Duration(p.minute)*time.Minute),
		}
		w.End = w.Start.Add(calibrationDuration)
		if w.Start.After(start) && w.End.Before(end) {
			windows = append(windows, w)
		}
	}
	return windows
}
