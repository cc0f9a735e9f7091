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
	"time"

	"github.com/noa-react/pollyscc/locations"
	"github.com/noa-react/pollyscc/pollyxt"
)

// ConvertedFile describes one SCC file produced by ConvertFile.
type ConvertedFile struct {
	MeasurementID string
	Path          string
	Start         time.Time // start of the measurement window the file covers
}

// Options adjust how ConvertFile splits and converts a recording.
// The zero value selects the defaults.
type Options struct {
	// RoundDown truncates window starts to the top of their hour.
	RoundDown bool

	// SkipCalibration disables the generation of depolarization
	// calibration files.
	SkipCalibration bool

	// Wavelength is the polarization calibration wavelength.
	// NM532 if zero.
	Wavelength Wavelength

	// PolCalibRangeMin and PolCalibRangeMax bound the height range, in
	// meters, for the calibration constant. The DefaultPolCalibRange
	// values are used if both are zero.
	PolCalibRangeMin, PolCalibRangeMax float64

	// Messages, if non-nil, receives progress messages.
	Messages chan string
}

// ConvertFile splits the raw PollyXT recording at inputPath into
// measurement windows of the given interval length and converts each
// window into an SCC file inside outputDir, followed by an SCC
// depolarization calibration file for every daily calibration slot that
// falls inside the recording.
//
// The returned generator writes one file per call and returns io.EOF
// after the last one, in the manner of a record reader: consume it in a
// loop to convert the whole recording, or stop early to convert only a
// prefix. It is single-pass and cannot be restarted.
func ConvertFile(inputPath, outputDir string, loc locations.Location, interval time.Duration,
	o *Options) (func() (*ConvertedFile, error), error) {

	if o == nil {
		o = &Options{}
	}
	if interval <= 0 {
		return nil, fmt.Errorf("pollyscc: measurement interval must be positive; got %v", interval)
	}
	wavelength := o.Wavelength
	if wavelength == 0 {
		wavelength = NM532
	}
	if _, ok := calibrationChannels[wavelength]; !ok {
		return nil, &InvalidWavelengthError{Wavelength: wavelength}
	}
	minHeight, maxHeight := o.PolCalibRangeMin, o.PolCalibRangeMax
	if minHeight == 0 && maxHeight == 0 {
		minHeight, maxHeight = DefaultPolCalibRangeMin, DefaultPolCalibRangeMax
	}

	start, end, err := pollyxt.MeasurementPeriod(inputPath)
	if err != nil {
		return nil, err
	}

	windows := Intervals(start, end, interval, o.RoundDown)
	var calibration []Window
	if !o.SkipCalibration {
		calibration = CalibrationWindows(start, end)
	}

	msg := func(format string, args ...interface{}) {
		if o.Messages != nil {
			o.Messages <- fmt.Sprintf(format, args...)
		}
	}

	i := 0
	return func() (*ConvertedFile, error) {
		for {
			if i >= len(windows)+len(calibration) {
				return nil, io.EOF
			}

			if i < len(windows) {
				w := windows[i]
				i++
				pf, err := pollyxt.Open(inputPath, w.Start, w.End)
				if err != nil {
					// An empty standard window means the recording does
					// not match its own timestamp table; do not emit an
					// empty file.
					return nil, err
				}
				id, path, err := CreateSCC(pf, outputDir, loc)
				if err != nil {
					return nil, err
				}
				msg("Wrote %s", path)
				return &ConvertedFile{MeasurementID: id, Path: path, Start: w.Start}, nil
			}

			w := calibration[i-len(windows)]
			i++
			pf, err := pollyxt.Open(inputPath, w.Start, w.End)
			if err != nil {
				if _, ok := err.(*pollyxt.EmptyWindowError); ok {
					// Calibration slots are opportunistic; skip slots
					// the instrument did not record through.
					msg("Skipping empty calibration window starting %v", w.Start.Format("15:04"))
					continue
				}
				return nil, err
			}
			if pf.Profiles() < minCalibrationProfiles {
				msg("Skipping short calibration window starting %v", w.Start.Format("15:04"))
				continue
			}
			id, path, err := CreateSCCCalibration(pf, outputDir, loc, wavelength, minHeight, maxHeight)
			if err != nil {
				return nil, err
			}
			msg("Wrote %s", path)
			return &ConvertedFile{MeasurementID: id, Path: path, Start: w.Start}, nil
		}
	}, nil
}
