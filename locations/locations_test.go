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

package locations

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestGet(t *testing.T) {
	l, err := Get("aky")
	if err != nil {
		t.Fatal(err)
	}
	want := Location{Name: "Antikythera", SCCCode: "aky", SystemIDDay: 437, SystemIDNight: 438}
	if diff := cmp.Diff(want, l); diff != "" {
		t.Error(diff)
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("xyz")
	e, ok := err.(*UnknownSiteError)
	if !ok {
		t.Fatalf("got error %v, want UnknownSiteError", err)
	}
	if e.Code != "xyz" {
		t.Errorf("error carries code %q, want %q", e.Code, "xyz")
	}
}

func TestAll(t *testing.T) {
	all := All()
	if len(all) < 2 {
		t.Fatalf("got %d sites, want at least the built-in 2", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].SCCCode >= all[i].SCCCode {
			t.Errorf("sites out of order: %q before %q", all[i-1].SCCCode, all[i].SCCCode)
		}
	}
}

func TestLoadTOML(t *testing.T) {
	dir, err := ioutil.TempDir("", "locations")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "sites.toml")
	const data = `
[[Locations]]
Name = "Test Site"
SCCCode = "tst"
SystemIDDay = 900
SystemIDNight = 901
`
	if err := ioutil.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadTOML(path); err != nil {
		t.Fatal(err)
	}
	l, err := Get("tst")
	if err != nil {
		t.Fatal(err)
	}
	want := Location{Name: "Test Site", SCCCode: "tst", SystemIDDay: 900, SystemIDNight: 901}
	if diff := cmp.Diff(want, l); diff != "" {
		t.Error(diff)
	}
}

func TestLoadTOMLMissingCode(t *testing.T) {
	dir, err := ioutil.TempDir("", "locations")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "sites.toml")
	const data = `
[[Locations]]
Name = "Nameless"
`
	if err := ioutil.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadTOML(path); err == nil {
		t.Fatal("expected an error for a site without an SCC code")
	}
}

func TestIsDaytime(t *testing.T) {
	day := func(h, m, s int) time.Time {
		return time.Date(2021, time.May, 10, h, m, s, 0, time.UTC)
	}
	tests := []struct {
		t    time.Time
		want bool
	}{
		{day(0, 0, 0), false},
		{day(3, 59, 59), false},
		{day(4, 0, 0), false}, // boundary belongs to night
		{day(4, 0, 1), true},
		{day(12, 0, 0), true},
		{day(15, 59, 59), true},
		{day(16, 0, 0), false},
		{day(23, 59, 59), false},
	}
	for _, test := range tests {
		if got := IsDaytime(test.t); got != test.want {
			t.Errorf("IsDaytime(%v) = %v, want %v", test.t.Format("15:04:05"), got, test.want)
		}
	}
}

func TestSystemID(t *testing.T) {
	l := Location{SCCCode: "tst", SystemIDDay: 1, SystemIDNight: 2}
	if got := l.SystemID(time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC)); got != 1 {
		t.Errorf("noon SystemID = %d, want the daytime configuration", got)
	}
	if got := l.SystemID(time.Date(2021, 1, 1, 2, 0, 0, 0, time.UTC)); got != 2 {
		t.Errorf("02:00 SystemID = %d, want the nighttime configuration", got)
	}
}
