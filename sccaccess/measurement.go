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

package sccaccess

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Measurement is one row of the SCC measurement status table: an
// uploaded measurement and the state of each processing product.
type Measurement struct {
	ID          string
	StationCode string

	Start   time.Time
	Stop    time.Time
	Created time.Time
	Updated time.Time

	IsUploaded   bool
	HasHiRELPP   bool
	HasCloudmask bool
	HasELPP      bool
	HasELDA      bool
	HasELDEC     bool
	HasELIC      bool
	HasELQuick   bool
	IsProcessing bool
}

// sccDateFormat is how the SCC web interface renders timestamps.
const sccDateFormat = "2006-01-02 15:04"

// CSV returns the measurement as a flat comma-separated row in the
// field order of the struct, with RFC 3339 timestamps.
func (m *Measurement) CSV() string {
	fields := []string{
		m.ID,
		m.StationCode,
		m.Start.Format(time.RFC3339),
		m.Stop.Format(time.RFC3339),
		m.Created.Format(time.RFC3339),
		m.Updated.Format(time.RFC3339),
	}
	for _, b := range []bool{
		m.IsUploaded, m.HasHiRELPP, m.HasCloudmask, m.HasELPP,
		m.HasELDA, m.HasELDEC, m.HasELIC, m.HasELQuick, m.IsProcessing,
	} {
		fields = append(fields, fmt.Sprintf("%t", b))
	}
	return strings.Join(fields, ",")
}

// ParseMeasurements extracts the measurement rows from the HTML of an
// SCC measurement listing page. Rows it cannot interpret are reported
// as errors rather than silently dropped.
func ParseMeasurements(r io.Reader) ([]Measurement, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("sccaccess: parsing measurement table: %v", err)
	}

	var measurements []Measurement
	for _, row := range findAll(doc, func(n *html.Node) bool { return n.Data == "tr" }) {
		// Only rows carrying an ID cell are measurement rows; header
		// and pagination rows are not.
		if cellByClass(row, "field-id") == nil {
			continue
		}
		m, err := parseRow(row)
		if err != nil {
			return nil, err
		}
		measurements = append(measurements, *m)
	}
	return measurements, nil
}

func parseRow(row *html.Node) (*Measurement, error) {
	m := &Measurement{
		ID:          text(cellByClass(row, "field-id")),
		StationCode: text(cellByClass(row, "field-station_id")),
	}
	if m.ID == "" {
		return nil, fmt.Errorf("sccaccess: measurement row has an empty ID cell")
	}

	for _, c := range []struct {
		class string
		dst   *time.Time
	}{
		{"field-start", &m.Start},
		{"field-stop", &m.Stop},
		{"field-creation_date", &m.Created},
		{"field-updated_date", &m.Updated},
	} {
		cell := cellByClass(row, c.class)
		if cell == nil {
			return nil, fmt.Errorf("sccaccess: measurement %s: missing %s cell", m.ID, c.class)
		}
		t, err := time.Parse(sccDateFormat, text(cell))
		if err != nil {
			return nil, fmt.Errorf("sccaccess: measurement %s: %s: %v", m.ID, c.class, err)
		}
		*c.dst = t
	}

	for _, c := range []struct {
		class string
		dst   *bool
	}{
		{"field-upload_ok", &m.IsUploaded},
		{"field-hirelpp_ok", &m.HasHiRELPP},
		{"field-cloudmask_ok", &m.HasCloudmask},
		{"field-elpp_ok", &m.HasELPP},
		{"field-elda_ok", &m.HasELDA},
		{"field-eldec_ok", &m.HasELDEC},
		{"field-elic_ok", &m.HasELIC},
		{"field-elquick_ok", &m.HasELQuick},
		{"field-is_being_processed", &m.IsProcessing},
	} {
		cell := cellByClass(row, c.class)
		if cell == nil {
			return nil, fmt.Errorf("sccaccess: measurement %s: missing %s cell", m.ID, c.class)
		}
		*c.dst = boolCell(cell)
	}
	return m, nil
}

// boolCell interprets the status icon the SCC renders inside a table
// cell: an <img> whose alt text is "True" or "False".
func boolCell(cell *html.Node) bool {
	imgs := findAll(cell, func(n *html.Node) bool { return n.Data == "img" })
	return len(imgs) > 0 && attr(imgs[0], "alt") == "True"
}

// cellByClass returns the first td or th under n whose class attribute
// contains the given class, or nil.
func cellByClass(n *html.Node, class string) *html.Node {
	cells := findAll(n, func(c *html.Node) bool {
		if c.Data != "td" && c.Data != "th" {
			return false
		}
		for _, f := range strings.Fields(attr(c, "class")) {
			if f == class {
				return true
			}
		}
		return false
	})
	if len(cells) == 0 {
		return nil
	}
	return cells[0]
}

// findAll returns the element nodes under n for which match is true.
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && match(c) {
			out = append(out, c)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return out
}

// attr returns the value of the named attribute of n, or "".
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// text returns the concatenated text content of n, trimmed.
func text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
