// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import cli "gopkg.in/urfave/cli.v1"

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to the chainhookd yaml config file",
		Value: "chainhookd.yaml",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "log verbosity (0-5)",
		Value: 3,
	}
	noBarFlag = cli.BoolFlag{
		Name:  "no-progress-bar",
		Usage: "disable the scan progress bar (useful when not attached to a tty)",
	}
)
