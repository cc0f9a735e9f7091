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
	"fmt"
	"io"
	"os"
	"reflect"
	"time"

	"github.com/ctessum/cdf"
)

// ncfWriter writes variable data to an SCC NetCDF file, keeping the
// first error it encounters so callers can check once after all writes.
type ncfWriter struct {
	f   *cdf.File
	err error
}

// put writes data as the whole contents of variable v. For variables on
// the record dimension, nrec gives the number of records written.
func (w *ncfWriter) put(v string, nrec int, data interface{}) {
	if w.err != nil {
		return
	}
	// Lengths returns the header's own slice; it must be copied before
	// substituting the record count, or the variable stops being a
	// record variable.
	end := append([]int(nil), w.f.Header.Lengths(v)...)
	begin := make([]int, len(end))
	if len(end) > 0 && end[0] == 0 {
		end[0] = nrec
	}
	n, err := w.f.Writer(v, begin, end).Write(data)
	if err == io.EOF && n == reflect.ValueOf(data).Len() {
		// The writer reports io.EOF when a write exactly fills the
		// variable's extent, which a scalar write always does.
		err = nil
	}
	if err != nil {
		w.err = fmt.Errorf("pollyscc: writing variable %s: %v", v, err)
	}
}

// createNCF creates the NetCDF file at path from the defined header h
// and hands the open file to fill for writing the variable data. On any
// error the partly-written file is removed.
func createNCF(path string, h *cdf.Header, hasRecords bool, fill func(w *ncfWriter)) error {
	for _, err := range h.Check() {
		return fmt.Errorf("pollyscc: defining %s: %v", path, err)
	}
	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pollyscc: creating %s: %v", path, err)
	}
	f, err := cdf.Create(ff, h)
	if err == nil {
		w := &ncfWriter{f: f}
		fill(w)
		err = w.err
		if err == nil && hasRecords {
			err = cdf.UpdateNumRecs(ff)
		}
	} else {
		err = fmt.Errorf("pollyscc: creating %s: %v", path, err)
	}
	if closeErr := ff.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("pollyscc: closing %s: %v", path, closeErr)
	}
	if err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// MeasurementStart returns the raw-data start time recorded in the
// global attributes of the SCC file at path.
func MeasurementStart(path string) (time.Time, error) {
	ff, err := os.Open(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("pollyscc: opening %s: %v", path, err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return time.Time{}, fmt.Errorf("pollyscc: opening %s: %v", path, err)
	}
	date, ok := f.Header.GetAttribute("", "RawData_Start_Date").(string)
	if !ok {
		return time.Time{}, fmt.Errorf("pollyscc: %s has no RawData_Start_Date attribute", path)
	}
	clock, ok := f.Header.GetAttribute("", "RawData_Start_Time_UT").(string)
	if !ok {
		return time.Time{}, fmt.Errorf("pollyscc: %s has no RawData_Start_Time_UT attribute", path)
	}
	t, err := time.Parse("20060102 150405", date+" "+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("pollyscc: %s: parsing start time: %v", path, err)
	}
	return t, nil
}

// repeatF64 returns a slice holding v n times.
func repeatF64(v float64, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}
