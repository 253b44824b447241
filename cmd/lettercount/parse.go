package main

import (
	"errors"
	"flag"
	"io"
	"strings"

	"lettercount/internal/cli"
)

const usageLine = "lettercount [options] <sourceDirectory> <resultDirectory>"

var errUsage = errors.New("expected <sourceDirectory> and <resultDirectory>")

type parsedArgs struct {
	SourceDir   string
	ResultDir   string
	ConfigPath  string
	ShowVersion bool
}

func parseArgs(args []string, errOut io.Writer) (parsedArgs, error) {
	fs := flag.NewFlagSet("lettercount", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configFlag := fs.String("config", "", "YAML file with logging, debounce and telemetry settings")
	helpVersion := cli.AddHelpVersionFlags(fs, "Show this help message", "Print version and exit")
	fs.Usage = func() {
		cli.PrintUsage(fs.Output(), usageLine, fs)
	}

	if err := fs.Parse(args); err != nil {
		return parsedArgs{}, err
	}
	if helpVersion.Help {
		fs.Usage()
		return parsedArgs{}, flag.ErrHelp
	}
	if helpVersion.Version {
		return parsedArgs{ShowVersion: true}, nil
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return parsedArgs{}, errUsage
	}

	return parsedArgs{
		SourceDir:  fs.Arg(0),
		ResultDir:  fs.Arg(1),
		ConfigPath: strings.TrimSpace(*configFlag),
	}, nil
}
