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

// Package pollysccutil holds the pollyscc command-line interface.
package pollysccutil

import (
	"fmt"
	"io"
	"os"

	"github.com/lnashier/viper"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/noa-react/pollyscc"
	"github.com/noa-react/pollyscc/locations"
	"github.com/noa-react/pollyscc/sccaccess"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "locations",
			usage: `
              locations specifies a TOML file with extra measurement
              sites to add to the built-in registry.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "location",
			usage: `
              location is the SCC code of the site where the
              measurement took place.`,
			shorthand:  "l",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{createSCCCmd.Flags(), uploadCmd.Flags()},
		},
		{
			name: "output",
			usage: `
              output specifies the directory to write the produced SCC
              files into.`,
			shorthand:  "o",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{createSCCCmd.Flags()},
		},
		{
			name: "interval",
			usage: `
              interval is the length of each measurement window the raw
              file is split into, for example 1h or 30m.`,
			defaultVal: "1h",
			flagsets:   []*pflag.FlagSet{createSCCCmd.Flags()},
		},
		{
			name: "round",
			usage: `
              round truncates window starts down to the top of the hour,
              so a file beginning at 01:02 produces windows aligned to
              01:00.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{createSCCCmd.Flags()},
		},
		{
			name: "no-calibration",
			usage: `
              no-calibration disables the generation of depolarization
              calibration files.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{createSCCCmd.Flags()},
		},
		{
			name: "wavelength",
			usage: `
              wavelength selects the polarization calibration wavelength
              in nanometers, either 355 or 532.`,
			defaultVal: 532,
			flagsets:   []*pflag.FlagSet{createSCCCmd.Flags()},
		},
		{
			name: "SCC.URL",
			usage: `
              SCC.URL is the base URL of the SCC web interface.`,
			defaultVal: "https://scc.imaa.cnr.it",
			flagsets:   []*pflag.FlagSet{uploadCmd.Flags()},
		},
		{
			name: "SCC.Username",
			usage: `
              SCC.Username is the account used to log in to the SCC.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{uploadCmd.Flags()},
		},
		{
			name: "SCC.Password",
			usage: `
              SCC.Password is the password for SCC.Username.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{uploadCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("POLLYSCC")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(createSCCCmd)
	Root.AddCommand(uploadCmd)
}

// outChan returns a channel printing to standard output.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for msg := range outChan {
			fmt.Println(msg)
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one,
// and registers any extra measurement sites.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("pollyscc: problem reading configuration file: %v", err)
		}
	}
	if sites := Cfg.GetString("locations"); sites != "" {
		if err := locations.LoadTOML(sites); err != nil {
			return err
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "pollyscc",
	Short: "Convert PollyXT lidar recordings to SCC files.",
	Long: `PollySCC converts raw PollyXT lidar recordings into the NetCDF format
expected by the EARLINET Single Calculus Chain and uploads them for
processing. Use the subcommands specified below to access the
functionality.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format
'POLLYSCC_var' where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of PollySCC.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("PollySCC v%s\n", pollyscc.Version)
	},
	DisableAutoGenTag: true,
}

var createSCCCmd = &cobra.Command{
	Use:   "create-scc raw-file [raw-file...]",
	Short: "Convert raw PollyXT files to SCC format.",
	Long: `create-scc splits each given raw PollyXT file into measurement windows
of the configured interval and writes one SCC NetCDF file per window,
plus one depolarization calibration file per daily calibration slot that
falls inside the recording.`,
	Args:              cobra.MinimumNArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := locations.Get(Cfg.GetString("location"))
		if err != nil {
			return err
		}
		interval, err := cast.ToDurationE(Cfg.GetString("interval"))
		if err != nil {
			return fmt.Errorf("pollyscc: parsing interval: %v", err)
		}
		outputDir := Cfg.GetString("output")
		if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
			return fmt.Errorf("pollyscc: creating output directory: %v", err)
		}
		opts := &pollyscc.Options{
			RoundDown:       Cfg.GetBool("round"),
			SkipCalibration: Cfg.GetBool("no-calibration"),
			Wavelength:      pollyscc.Wavelength(Cfg.GetInt("wavelength")),
			Messages:        outChan(),
		}
		for _, input := range args {
			next, err := pollyscc.ConvertFile(input, outputDir, loc, interval, opts)
			if err != nil {
				return err
			}
			for {
				cf, err := next()
				if err == io.EOF {
					break
				}
				if err != nil {
					return err
				}
				log.WithFields(log.Fields{
					"measurement": cf.MeasurementID,
					"start":       cf.Start,
				}).Info("converted ", cf.Path)
			}
		}
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload scc-file [scc-file...]",
	Short: "Upload SCC files for processing.",
	Long: `upload sends previously created SCC NetCDF files to the SCC web
interface for processing, using the system configuration ID of the given
location at each file's start time.`,
	Args:              cobra.MinimumNArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := locations.Get(Cfg.GetString("location"))
		if err != nil {
			return err
		}
		client, err := sccaccess.New(Cfg.GetString("SCC.URL"))
		if err != nil {
			return err
		}
		if err := client.Login(Cfg.GetString("SCC.Username"), Cfg.GetString("SCC.Password")); err != nil {
			return err
		}
		for _, path := range args {
			start, err := pollyscc.MeasurementStart(path)
			if err != nil {
				return err
			}
			if err := client.Upload(path, loc.SystemID(start)); err != nil {
				return err
			}
			log.Info("uploaded ", path)
		}
		return nil
	},
}
