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

// Package pollyscc converts raw PollyXT lidar recordings into the NetCDF
// exchange format expected by the EARLINET Single Calculus Chain (SCC).
//
// A raw recording is split into fixed-length measurement windows plus the
// daily polarization calibration slots, and one SCC file is written per
// window. The pollyxt subpackage reads the raw files; this package plans
// the windows and writes the SCC output.
package pollyscc

// Version is this version of PollySCC.
const Version = "1.2.0"
