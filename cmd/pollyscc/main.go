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

// Command pollyscc is a command-line interface for converting PollyXT
// lidar recordings to SCC format and uploading them for processing.
package main

import (
	"fmt"
	"os"

	"github.com/noa-react/pollyscc/pollysccutil"
)

func main() {
	if err := pollysccutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
