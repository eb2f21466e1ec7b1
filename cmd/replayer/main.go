package main

import (
	"flag"
	"fmt"
	"os"

	"replayer/internal/config"
)

const usageText = `replayer - drive and replay recorded desktop trajectories

usage:
  replayer [-config path] <command> [args]

commands:
  replay <trajectory-dir>   replay the recorded actions against the computer
  inspect <trajectory-dir>  show a report of the authoritative response file
  trim <response.json>      apply the image retention policy to a response file
  milestone -path <remote>  capture and save a milestone screenshot (-list shows history)
  runs [run-id]             list recorded replay runs / show one run's actions

run "replayer <command> -h" for command flags.
`

func usage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config JSON")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	var cmdErr error
	switch args[0] {
	case "replay":
		cmdErr = cmdReplay(cfg, args[1:])
	case "inspect":
		cmdErr = cmdInspect(cfg, args[1:])
	case "trim":
		cmdErr = cmdTrim(cfg, args[1:])
	case "milestone":
		cmdErr = cmdMilestone(cfg, args[1:])
	case "runs":
		cmdErr = cmdRuns(cfg, args[1:])
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		usage()
		os.Exit(2)
	}
	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "%v\n", cmdErr)
		os.Exit(1)
	}
}
