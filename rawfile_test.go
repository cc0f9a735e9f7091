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
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctessum/cdf"
)

// rawSignalValue is the deterministic test pattern stored in synthetic
// raw files, so tests can check slicing and axis order bin by bin.
func rawSignalValue(profile, channel, bin int) float64 {
	return float64(profile*10000 + channel*100 + bin)
}

// writeRawFile writes a synthetic PollyXT recording with one profile
// every 30 seconds starting at start, and returns its path.
func writeRawFile(t *testing.T, dir string, start time.Time, nProf, nChan, nBins int) string {
	t.Helper()

	h := cdf.NewHeader(
		[]string{"time", "height", "channel", "value"},
		[]int{nProf, nBins, nChan, 2})
	h.AddVariable("measurement_time", []string{"time", "value"}, []int32{0})
	h.AddVariable("raw_signal", []string{"time", "height", "channel"}, []int32{0})
	h.AddVariable("measurement_shots", []string{"time", "channel"}, []int32{0})
	h.AddVariable("zenithangle", []string{}, []float64{0})
	h.Define()
	for _, err := range h.Check() {
		t.Fatal(err)
	}

	times := make([]int32, 2*nProf)
	for i := 0; i < nProf; i++ {
		ti := start.Add(time.Duration(i) * 30 * time.Second)
		times[2*i] = int32(ti.Year()*10000 + int(ti.Month())*100 + ti.Day())
		times[2*i+1] = int32(ti.Hour()*3600 + ti.Minute()*60 + ti.Second())
	}
	signal := make([]int32, nProf*nBins*nChan)
	for i := 0; i < nProf; i++ {
		for j := 0; j < nBins; j++ {
			for k := 0; k < nChan; k++ {
				signal[(i*nBins+j)*nChan+k] = int32(rawSignalValue(i, k, j))
			}
		}
	}
	shots := make([]int32, nProf*nChan)
	for i := range shots {
		shots[i] = 550
	}

	path := filepath.Join(dir, "raw_"+start.Format("20060102_150405")+".nc")
	ff, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []struct {
		name string
		data interface{}
	}{
		{"measurement_time", times},
		{"raw_signal", signal},
		{"measurement_shots", shots},
		{"zenithangle", []float64{5.5}},
	} {
		end := f.Header.Lengths(v.name)
		begin := make([]int, len(end))
		// A write that exactly fills the variable reports io.EOF.
		if _, err := f.Writer(v.name, begin, end).Write(v.data); err != nil && err != io.EOF {
			t.Fatalf("writing %s: %v", v.name, err)
		}
	}
	return path
}

// readVar reads the whole contents of a variable from an SCC file,
// spanning all records for variables on the record dimension.
func readVar(t *testing.T, path, v string) interface{} {
	t.Helper()
	ff, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	nc, err := cdf.Open(ff)
	if err != nil {
		t.Fatal(err)
	}

	dims := append([]int(nil), nc.Header.Lengths(v)...)
	if len(dims) == 0 || dims[0] != 0 {
		r := nc.Reader(v, nil, nil)
		buf := r.Zero(-1)
		if _, err := r.Read(buf); err != nil && err != io.EOF {
			t.Fatalf("reading %s: %v", v, err)
		}
		return buf
	}

	// A record variable's contiguous extent is a single record; size
	// the read from the file's record count instead.
	fi, err := ff.Stat()
	if err != nil {
		t.Fatal(err)
	}
	dims[0] = int(nc.Header.NumRecs(fi.Size()))
	n := 1
	for _, d := range dims {
		n *= d
	}
	r := nc.Reader(v, make([]int, len(dims)), dims)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil && err != io.EOF {
		t.Fatalf("reading %s: %v", v, err)
	}
	return buf
}

// readAttr reads a global attribute from an SCC file.
func readAttr(t *testing.T, path, name string) interface{} {
	t.Helper()
	ff, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	nc, err := cdf.Open(ff)
	if err != nil {
		t.Fatal(err)
	}
	return nc.Header.GetAttribute("", name)
}
