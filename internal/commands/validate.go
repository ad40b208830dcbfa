/*
 * FloofOS - Fast Line-rate Offload On Fabric Operating System
 * Copyright (C) 2025 FloofOS Networks <dev@floofos.io>
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License.
 */

package commands

import (
	"io"
	"regexp"

	"github.com/fatih/color"
)

const octet = `(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)`

var (
	ipPattern       = regexp.MustCompile(`^(?:` + octet + `\.){3}` + octet + `$`)
	ipCIDRPattern   = regexp.MustCompile(`^(((?:` + octet + `\.){3}` + octet + `/(?:2[0-4]|1[0-9]|[0-9]))|dhcp)$`)
	domainPattern   = regexp.MustCompile(`^$|^[^\s]+$`)
	hostnamePattern = regexp.MustCompile(`^[^\s]+$`)
	ntpHostPattern  = regexp.MustCompile(`^[^\s]+$`)
	numberPattern   = regexp.MustCompile(`^[0-9]+$`)

	// MMDDhhmmCCYY[.ss], the form date(1) accepts for setting the clock.
	timePattern = regexp.MustCompile(`^(1[0-2]|0[1-9])(3[01]|[12][0-9]|0[1-9])([01][0-9]|2[0-3])([0-5][0-9])(20[0-9][0-9])(\.[0-5][0-9])?$`)
)

// validate checks every value against any of patterns. The first value
// that matches none is reported with errFmt and stops the check.
func validate(out io.Writer, values []string, errFmt string, patterns ...*regexp.Regexp) bool {
	for _, v := range values {
		if !matchesAny(v, patterns) {
			color.New(color.FgRed).Fprintf(out, errFmt+"\n", v)
			return false
		}
	}
	return true
}

func matchesAny(v string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(v) {
			return true
		}
	}
	return false
}
