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

// Package pollyxt reads raw PollyXT lidar recordings
// (NetCDF 4 and greater not supported).
package pollyxt

import (
	"fmt"
	"os"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Variable names in raw PollyXT files.
const (
	timeVar   = "measurement_time"
	signalVar = "raw_signal"
	shotsVar  = "measurement_shots"
	zenithVar = "zenithangle"
)

// FormatError means a raw PollyXT file is missing required information
// or holds information this package cannot interpret.
type FormatError struct {
	Path    string
	Problem string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("pollyxt: %s: %s", e.Path, e.Problem)
}

// EmptyWindowError means that restricting a raw file to a time window
// selected no profiles.
type EmptyWindowError struct {
	Path       string
	Start, End time.Time
}

func (e *EmptyWindowError) Error() string {
	return fmt.Sprintf("pollyxt: %s: no profiles between %v and %v",
		e.Path, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// File holds the contents of one raw PollyXT recording restricted to a
// time window. All arrays share the same profile axis length.
type File struct {
	// Start and End are the bounds of the window the file was
	// restricted to, not the timestamps of the first and last profile
	// it contains.
	Start, End time.Time

	Signal      *sparse.DenseArray // raw signal, indexed [profile, channel, bin]
	RawTime     []int32            // per-profile time as seconds from midnight
	Shots       *sparse.DenseArray // laser shots, indexed [profile, channel]
	ZenithAngle float64            // degrees from vertical
}

// Profiles returns the number of lidar profiles in the window.
func (f *File) Profiles() int { return f.Signal.Shape[0] }

// Channels returns the number of acquisition channels.
func (f *File) Channels() int { return f.Signal.Shape[1] }

// Bins returns the number of range bins per profile.
func (f *File) Bins() int { return f.Signal.Shape[2] }

// Open reads the raw PollyXT file at path restricted to profiles with
// timestamps in [start, end). It returns an EmptyWindowError if the
// restriction selects no profiles and a FormatError if the file cannot
// be interpreted.
func Open(path string, start, end time.Time) (*File, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pollyxt: opening %s: %v", path, err)
	}
	defer ff.Close()
	nc, err := cdf.Open(ff)
	if err != nil {
		return nil, &FormatError{Path: path, Problem: err.Error()}
	}

	times, secs, err := profileTimes(nc, path)
	if err != nil {
		return nil, err
	}

	// Select the profile index range covered by the window.
	i0 := len(times)
	i1 := 0
	for i, t := range times {
		if !t.Before(start) && t.Before(end) {
			if i < i0 {
				i0 = i
			}
			i1 = i + 1
		}
	}
	if i0 >= i1 {
		return nil, &EmptyWindowError{Path: path, Start: start, End: end}
	}

	raw, err := readRecords(nc, path, signalVar, i0, i1)
	if err != nil {
		return nil, err
	}
	shots, err := readRecords(nc, path, shotsVar, i0, i1)
	if err != nil {
		return nil, err
	}
	zenith, err := readScalar(nc, path, zenithVar)
	if err != nil {
		return nil, err
	}

	// Raw files store the signal as [profile, bin, channel]; swap the
	// axes so channels vary slower than range bins.
	nProf, nBins, nChan := raw.Shape[0], raw.Shape[1], raw.Shape[2]
	signal := sparse.ZerosDense(nProf, nChan, nBins)
	for i := 0; i < nProf; i++ {
		for j := 0; j < nBins; j++ {
			for k := 0; k < nChan; k++ {
				signal.Set(raw.Get(i, j, k), i, k, j)
			}
		}
	}

	return &File{
		Start:       start,
		End:         end,
		Signal:      signal,
		RawTime:     secs[i0:i1],
		Shots:       shots,
		ZenithAngle: zenith,
	}, nil
}

// MeasurementPeriod returns the timestamps of the first and last
// profiles in the raw PollyXT file at path, without reading any signal
// data.
func MeasurementPeriod(path string) (start, end time.Time, err error) {
	ff, err := os.Open(path)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("pollyxt: opening %s: %v", path, err)
	}
	defer ff.Close()
	nc, err := cdf.Open(ff)
	if err != nil {
		return time.Time{}, time.Time{}, &FormatError{Path: path, Problem: err.Error()}
	}
	times, _, err := profileTimes(nc, path)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return times[0], times[len(times)-1], nil
}

// profileTimes reads the per-profile timestamp table. Each row holds
// the date as a YYYYMMDD integer and the time as seconds from midnight.
func profileTimes(nc *cdf.File, path string) ([]time.Time, []int32, error) {
	if !hasVariable(nc, timeVar) {
		return nil, nil, &FormatError{Path: path, Problem: fmt.Sprintf("variable %s not in file", timeVar)}
	}
	r := nc.Reader(timeVar, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, nil, &FormatError{Path: path, Problem: fmt.Sprintf("reading %s: %v", timeVar, err)}
	}
	rows, ok := buf.([]int32)
	if !ok || len(rows)%2 != 0 || len(rows) == 0 {
		return nil, nil, &FormatError{Path: path, Problem: fmt.Sprintf("variable %s is not an integer [profile, 2] table", timeVar)}
	}

	n := len(rows) / 2
	times := make([]time.Time, n)
	secs := make([]int32, n)
	for i := 0; i < n; i++ {
		date, sec := rows[2*i], rows[2*i+1]
		year, month, day := int(date/10000), int(date/100%100), int(date%100)
		if month < 1 || month > 12 || day < 1 || day > 31 || sec < 0 || sec >= 86400 {
			return nil, nil, &FormatError{Path: path,
				Problem: fmt.Sprintf("cannot parse profile time (date=%d, seconds=%d)", date, sec)}
		}
		times[i] = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).
			Add(time.Duration(sec) * time.Second)
		secs[i] = sec
	}
	return times, secs, nil
}

// readRecords reads profiles [i0, i1) of variable v into a dense array
// whose leading axis is the profile index.
func readRecords(nc *cdf.File, path, v string, i0, i1 int) (*sparse.DenseArray, error) {
	if !hasVariable(nc, v) {
		return nil, &FormatError{Path: path, Problem: fmt.Sprintf("variable %s not in file", v)}
	}
	dims := nc.Header.Lengths(v)
	nread := i1 - i0
	for _, d := range dims[1:] {
		nread *= d
	}
	start, end := make([]int, len(dims)), make([]int, len(dims))
	start[0], end[0] = i0, i1
	r := nc.Reader(v, start, end)
	buf := r.Zero(nread)
	if _, err := r.Read(buf); err != nil {
		return nil, &FormatError{Path: path, Problem: fmt.Sprintf("reading %s: %v", v, err)}
	}
	shape := append([]int{i1 - i0}, dims[1:]...)
	data := sparse.ZerosDense(shape...)
	if err := fillFloats(data.Elements, buf); err != nil {
		return nil, &FormatError{Path: path, Problem: fmt.Sprintf("variable %s: %v", v, err)}
	}
	return data, nil
}

// readScalar reads the first value of variable v.
func readScalar(nc *cdf.File, path, v string) (float64, error) {
	if !hasVariable(nc, v) {
		return 0, &FormatError{Path: path, Problem: fmt.Sprintf("variable %s not in file", v)}
	}
	r := nc.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return 0, &FormatError{Path: path, Problem: fmt.Sprintf("reading %s: %v", v, err)}
	}
	out := make([]float64, 1)
	if err := fillFloats(out, buf); err != nil {
		return 0, &FormatError{Path: path, Problem: fmt.Sprintf("variable %s: %v", v, err)}
	}
	return out[0], nil
}

// fillFloats copies a buffer returned by a cdf reader into dst,
// converting from whichever numeric type the file stores.
func fillFloats(dst []float64, buf interface{}) error {
	switch b := buf.(type) {
	case []float64:
		copy(dst, b)
	case []float32:
		for i := range dst {
			dst[i] = float64(b[i])
		}
	case []int32:
		for i := range dst {
			dst[i] = float64(b[i])
		}
	case []int16:
		for i := range dst {
			dst[i] = float64(b[i])
		}
	default:
		return fmt.Errorf("unsupported data type %T", buf)
	}
	return nil
}

func hasVariable(nc *cdf.File, v string) bool {
	for _, name := range nc.Header.Variables() {
		if name == v {
			return true
		}
	}
	return false
}
