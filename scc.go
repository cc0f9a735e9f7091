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

// sccChannelIDs maps the 12 PollyXT acquisition channels, in raw file
// order, to their SCC channel IDs. The SCC rejects files whose channel
// table differs from the registered system configuration.
var sccChannelIDs = []int32{493, 500, 497, 499, 494, 496, 498, 495, 501, 941, 940, 502}

// Schema constants required by the SCC input format.
const (
	backgroundLow  = 0   // first range bin of the background window
	backgroundHigh = 249 // last range bin of the background window

	stationPressure    = 1008 // hPa at the lidar station
	stationTemperature = 20   // °C at the lidar station

	// The SCC assumes each profile integrates over 30 seconds; the
	// actual sampling interval of the instrument is not consulted.
	profileDuration = 30
)

// CreateSCC converts one measurement window of a raw PollyXT recording
// into an SCC measurement file inside outputDir. It returns the SCC
// measurement ID and the path of the written file, which is named after
// the ID.
func CreateSCC(pf *pollyxt.File, outputDir string, loc locations.Location) (id, path string, err error) {
	id = pf.Start.Format("20060102") + loc.SCCCode + pf.Start.Format("15") + pf.End.Format("15")
	path = filepath.Join(outputDir, id+".nc")

	nProf, nChan, nBins := pf.Profiles(), pf.Channels(), pf.Bins()

	h := cdf.NewHeader(
		[]string{"points", "channels", "time", "nb_of_time_scales", "scan_angles"},
		[]int{nBins, nChan, 0, 1, 1})

	h.AddAttribute("", "Measurement_ID", id)
	h.AddAttribute("", "RawData_Start_Date", pf.Start.Format("20060102"))
	h.AddAttribute("", "RawData_Start_Time_UT", pf.Start.Format("150405"))
	h.AddAttribute("", "RawData_Stop_Time_UT", pf.End.Format("150405"))
	h.AddAttribute("", "RawBck_Start_Date", pf.Start.Format("20060102"))
	h.AddAttribute("", "RawBck_Start_Time_UT", pf.Start.Format("150405"))
	h.AddAttribute("", "RawBck_Stop_Time_UT", pf.End.Format("150405"))
	h.AddAttribute("", "Sounding_File_Name", fmt.Sprintf("rs_%s.nc", id[:len(id)-2]))
	h.AddAttribute("", "NOAReACT_Configuration_ID", []int32{loc.SystemID(pf.Start)})

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
	h.AddVariable("LR_Input", []string{"channels"}, []int32{0})
	h.Define()

	// Profile start times are offset so the first profile reads zero;
	// each profile nominally stops profileDuration seconds later.
	startTimes := make([]int32, nProf)
	stopTimes := make([]int32, nProf)
	for i, sec := range pf.RawTime {
		startTimes[i] = sec - pf.RawTime[0]
		stopTimes[i] = startTimes[i] + profileDuration
	}

	shots := make([]int32, len(pf.Shots.Elements))
	for i, v := range pf.Shots.Elements {
		shots[i] = int32(v)
	}

	ones := make([]int32, nChan)
	for i := range ones {
		ones[i] = 1
	}

	err = createNCF(path, h, true, func(w *ncfWriter) {
		w.put("Raw_Data_Start_Time", nProf, startTimes)
		w.put("Raw_Data_Stop_Time", nProf, stopTimes)
		w.put("Raw_Lidar_Data", nProf, append([]float64(nil), pf.Signal.Elements...))
		w.put("channel_ID", 0, append([]int32(nil), sccChannelIDs...))
		w.put("id_timescale", 0, make([]int32, nChan))
		w.put("Laser_Pointing_Angle", 0, []float64{float64(int(pf.ZenithAngle))})
		w.put("Laser_Pointing_Angle_of_Profiles", nProf, make([]int32, nProf))
		w.put("Laser_Shots", nProf, shots)
		w.put("Background_Low", 0, repeatF64(backgroundLow, nChan))
		w.put("Background_High", 0, repeatF64(backgroundHigh, nChan))
		w.put("Molecular_Calc", 0, []int32{1})
		w.put("Pressure_at_Lidar_Station", 0, []float64{stationPressure})
		w.put("Temperature_at_Lidar_Station", 0, []float64{stationTemperature})
		w.put("LR_Input", 0, ones)
		// Pol_Calib_Range_Min and Pol_Calib_Range_Max are part of the
		// schema but only carry data in calibration files.
	})
	if err != nil {
		return "", "", err
	}
	return id, path, nil
}
