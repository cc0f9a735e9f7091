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
	"path/filepath"

	"github.com/ctessum/cdf"
	"github.com/noa-react/pollyscc/locations"
	"github.com/noa-react/pollyscc/pollyxt"
)

// Wavelength is a laser wavelength in nanometers.
type Wavelength int

// The wavelengths the instrument can calibrate polarization at.
const (
	NM355 Wavelength = 355
	NM532 Wavelength = 532
)

func (w Wavelength) String() string { return fmt.Sprintf("%d nm", int(w)) }

// InvalidWavelengthError means a calibration was requested at a
// wavelength the instrument does not support.
type InvalidWavelengthError struct {
	Wavelength Wavelength
}

func (e *InvalidWavelengthError) Error() string {
	return fmt.Sprintf("pollyscc: invalid calibration wavelength %v (must be %v or %v)",
		e.Wavelength, NM355, NM532)
}

// Default height range, in meters, over which the polarization
// calibration constant is computed.
const (
	DefaultPolCalibRangeMin = 1200
	DefaultPolCalibRangeMax = 2500
)

// calibrationChannels maps each calibration wavelength to the raw
// channel indices of its total and cross polarization components and to
// the SCC channel IDs of the 4 output channels.
var calibrationChannels = map[Wavelength]struct {
	total, cross int
	channelIDs   []int32
}{
	NM355: {total: 0, cross: 1, channelIDs: []int32{1236, 1266, 1267, 1268}},
	NM532: {total: 4, cross: 5, channelIDs: []int32{1269, 1270, 1271, 1272}},
}

// Calibration cycle layout: the three cycles read the total and cross
// channels at profile offsets {0,12}, {1,13} and {2,14} from the start
// of the calibration window.
const (
	calibrationCycles      = 3
	calibrationCycleStride = 12
	// minCalibrationProfiles is the shortest window the cycles fit in.
	minCalibrationProfiles = calibrationCycleStride + calibrationCycles
)

// CreateSCCCalibration converts a polarization calibration window of a
// raw PollyXT recording into an SCC depolarization calibration file
// inside outputDir. minHeight and maxHeight bound the height range used
// for the calibration constant; pass the DefaultPolCalibRange values
// unless the site requires otherwise. It returns the SCC measurement ID,
// which carries a wavelength suffix that the file name does not.
func CreateSCCCalibration(pf *pollyxt.File, outputDir string, loc locations.Location,
	wavelength Wavelength, minHeight, maxHeight float64) (id, path string, err error) {

	setup, ok := calibrationChannels[wavelength]
	if !ok {
		return "", "", &InvalidWavelengthError{Wavelength: wavelength}
	}
	if n := pf.Profiles(); n < minCalibrationProfiles {
		return "", "", fmt.Errorf("pollyscc: calibration window starting %v has %d profiles; need at least %d",
			pf.Start.Format("2006-01-02 15:04"), n, minCalibrationProfiles)
	}

	base := pf.Start.Format("20060102") + loc.SCCCode + pf.Start.Format("15")
	suffix := "53"
	if wavelength == NM355 {
		suffix = "35"
	}
	id = base + suffix
	// The file is named after the un-suffixed ID; only the embedded
	// Measurement_ID attribute carries the wavelength.
	path = filepath.Join(outputDir, "calibration_"+base+".nc")

	nBins := pf.Bins()
	const nChan = 4

	h := cdf.NewHeader(
		[]string{"points", "channels", "time", "nb_of_time_scales", "scan_angles"},
		[]int{nBins, nChan, calibrationCycles, 1, 1})

	h.AddAttribute("", "Measurement_ID", id)
	h.AddAttribute("", "RawData_Start_Date", pf.Start.Format("20060102"))
	h.AddAttribute("", "RawData_Start_Time_UT", pf.Start.Format("150405"))
	h.AddAttribute("", "RawData_Stop_Time_UT", pf.End.Format("150405"))
	h.AddAttribute("", "RawBck_Start_Date", pf.Start.Format("20060102"))
	h.AddAttribute("", "RawBck_Start_Time_UT", pf.Start.Format("150405"))
	h.AddAttribute("", "RawBck_Stop_Time_UT", pf.End.Format("150405"))

	h.AddVariable("Raw_Data_Start_Time", []string{"time", "nb_of_time_scales"}, []int32{0})
	h.AddVariable("Raw_Data_Stop_Time", []string{"time", "nb_of_time_scales"}, []int32{0})
	h.AddVariable("Raw_Lidar_Data", []string{"time", "channels", "points"}, []float64{0})
	h.AddVariable("channel_ID", []string{"channels"}, []int32{0})
	h.AddVariable("id_timescale", []string{"channels"}, []int32{0})
	h.AddVariable("Laser_Pointing_Angle", []string{"scan_angles"}, []float64{0})
	h.AddVariable("Laser_Pointing_Angle_of_Profiles", []string{"time", "nb_of_time_scales"}, []int32{0})
	h.AddVariable("Laser_Shots", []string{"time", "channels"}, []int32{0})
	h.AddVariable("Background_Low", []string{"channels"}, []float64{0})
	h.AddVariable("Background_High", []string{"channels"}, []float64{0})
	h.AddVariable("Molecular_Calc", []string{}, []int32{0})
	h.AddVariable("Pol_Calib_Range_Min", []string{"channels"}, []float64{0})
	h.AddVariable("Pol_Calib_Range_Max", []string{"channels"}, []float64{0})
	h.AddVariable("Pressure_at_Lidar_Station", []string{}, []float64{0})
	h.AddVariable("Temperature_at_Lidar_Station", []string{}, []float64{0})
	h.Define()

	// Cycle start and stop times are the synthetic values the SCC
	// calibration processor expects, not elapsed seconds.
	startTimes := make([]int32, calibrationCycles)
	stopTimes := make([]int32, calibrationCycles)
	raw := make([]float64, calibrationCycles*nChan*nBins)
	for cycle := 0; cycle < calibrationCycles; cycle++ {
		startTimes[cycle] = int32(cycle)
		stopTimes[cycle] = int32(calibrationCycleStride + cycle)

		first, second := cycle, calibrationCycleStride+cycle
		for k, src := range [nChan]struct{ profile, channel int }{
			{first, setup.cross},
			{first, setup.total},
			{second, setup.cross},
			{second, setup.total},
		} {
			row := raw[(cycle*nChan+k)*nBins : (cycle*nChan+k+1)*nBins]
			for b := 0; b < nBins; b++ {
				row[b] = pf.Signal.Get(src.profile, src.channel, b)
			}
		}
	}

	shots := make([]int32, calibrationCycles*nChan)
	for i := range shots {
		shots[i] = 600 // fixed shot count in calibration mode
	}

	err = createNCF(path, h, false, func(w *ncfWriter) {
		w.put("Raw_Data_Start_Time", 0, startTimes)
		w.put("Raw_Data_Stop_Time", 0, stopTimes)
		w.put("Raw_Lidar_Data", 0, raw)
		w.put("channel_ID", 0, append([]int32(nil), setup.channelIDs...))
		w.put("id_timescale", 0, make([]int32, nChan))
		w.put("Laser_Pointing_Angle", 0, []float64{5})
		w.put("Laser_Pointing_Angle_of_Profiles", 0, make([]int32, calibrationCycles))
		w.put("Laser_Shots", 0, shots)
		w.put("Background_Low", 0, repeatF64(backgroundLow, nChan))
		w.put("Background_High", 0, repeatF64(backgroundHigh, nChan))
		w.put("Molecular_Calc", 0, []int32{0})
		w.put("Pol_Calib_Range_Min", 0, repeatF64(minHeight, nChan))
		w.put("Pol_Calib_Range_Max", 0, repeatF64(maxHeight, nChan))
		w.put("Pressure_at_Lidar_Station", 0, []float64{stationPressure})
		w.put("Temperature_at_Lidar_Station", 0, []float64{stationTemperature})
	})
	if err != nil {
		return "", "", err
	}
	return id, path, nil
}
