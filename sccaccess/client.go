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

// Package sccaccess talks to the Single Calculus Chain web interface:
// uploading converted measurement files and polling their processing
// status.
package sccaccess

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	log "github.com/sirupsen/logrus"
)

// Paths on the SCC server.
const (
	loginPath       = "/accounts/login/"
	uploadPath      = "/data_processing/measurements/quick/"
	measurementPath = "/admin/database/measurements/"
)

// Client is a session with the SCC web interface. Create one with New
// and authenticate with Login before any other call.
type Client struct {
	base *url.URL
	hc   *http.Client
}

// New returns a client for the SCC instance at baseURL.
func New(baseURL string) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("sccaccess: parsing base URL %s: %v", baseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("sccaccess: creating cookie jar: %v", err)
	}
	return &Client{
		base: base,
		hc:   &http.Client{Jar: jar, Timeout: 2 * time.Minute},
	}, nil
}

func (c *Client) url(path string) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String()
}

// csrfToken returns the CSRF token cookie the server set for u.
func (c *Client) csrfToken(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	for _, cookie := range c.hc.Jar.Cookies(parsed) {
		if cookie.Name == "csrftoken" {
			return cookie.Value
		}
	}
	return ""
}

// Login authenticates the session against the SCC login form.
func (c *Client) Login(username, password string) error {
	loginURL := c.url(loginPath)

	// Fetch the form first so the server hands out a CSRF token.
	resp, err := c.hc.Get(loginURL)
	if err != nil {
		return fmt.Errorf("sccaccess: fetching login page: %v", err)
	}
	io.Copy(ioutil.Discard, resp.Body)
	resp.Body.Close()

	form := url.Values{
		"username":            {username},
		"password":            {password},
		"csrfmiddlewaretoken": {c.csrfToken(loginURL)},
	}
	req, err := http.NewRequest(http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sccaccess: login: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", loginURL)
	resp, err = c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("sccaccess: login: %v", err)
	}
	body, _ := ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sccaccess: login failed with status %s", resp.Status)
	}
	if strings.Contains(string(body), "Wrong username or password") {
		return fmt.Errorf("sccaccess: login failed: wrong username or password")
	}
	return nil
}

// Upload submits the SCC NetCDF file at path for processing under the
// given lidar system configuration ID.
func (c *Client) Upload(path string, systemID int32) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sccaccess: opening upload file: %v", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("system", fmt.Sprint(systemID)); err != nil {
		return fmt.Errorf("sccaccess: uploading %s: %v", path, err)
	}
	uploadURL := c.url(uploadPath)
	if err := mw.WriteField("csrfmiddlewaretoken", c.csrfToken(uploadURL)); err != nil {
		return fmt.Errorf("sccaccess: uploading %s: %v", path, err)
	}
	part, err := mw.CreateFormFile("data", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("sccaccess: uploading %s: %v", path, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("sccaccess: uploading %s: %v", path, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("sccaccess: uploading %s: %v", path, err)
	}

	req, err := http.NewRequest(http.MethodPost, uploadURL, &body)
	if err != nil {
		return fmt.Errorf("sccaccess: uploading %s: %v", path, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Referer", uploadURL)
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("sccaccess: uploading %s: %v", path, err)
	}
	io.Copy(ioutil.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sccaccess: uploading %s: status %s", path, resp.Status)
	}
	return nil
}

// Measurement fetches the status row for the measurement with the
// given ID, or nil if the SCC does not list it.
func (c *Client) Measurement(id string) (*Measurement, error) {
	resp, err := c.hc.Get(c.url(measurementPath) + "?q=" + url.QueryEscape(id))
	if err != nil {
		return nil, fmt.Errorf("sccaccess: fetching measurement %s: %v", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sccaccess: fetching measurement %s: status %s", id, resp.Status)
	}
	measurements, err := ParseMeasurements(resp.Body)
	if err != nil {
		return nil, err
	}
	for i, m := range measurements {
		if m.ID == id {
			return &measurements[i], nil
		}
	}
	return nil, nil
}

// WaitUntilProcessed polls the SCC until the measurement with the
// given ID finishes processing, backing off exponentially between
// polls up to the given total wait time.
func (c *Client) WaitUntilProcessed(id string, maxWait time.Duration) (*Measurement, error) {
	var m *Measurement
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxWait
	err := backoff.RetryNotify(
		func() error {
			var err error
			m, err = c.Measurement(id)
			if err != nil {
				return err
			}
			if m == nil {
				return fmt.Errorf("sccaccess: measurement %s not listed yet", id)
			}
			if m.IsProcessing {
				return fmt.Errorf("sccaccess: measurement %s still processing", id)
			}
			return nil
		},
		b,
		func(err error, d time.Duration) {
			log.WithField("measurement", id).Infof("%v: retrying in %v", err, d)
		},
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}
