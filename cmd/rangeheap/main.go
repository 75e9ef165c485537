// Command rangeheap reports clashing parts in a scene.
//
//	rangeheap [-config file] [-json] [-pair a,b] scene.toml|scene.zy
//
// The scene is read from TOML or from a Lisp script, tessellated with sdfx
// and checked with range heap pair searches.
package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	configFile = flag.String("config", "", "Specify the configuration file.")
	jsonOut    = flag.Bool("json", false, "Write the report as JSON.")
	pairFlag   = flag.String("pair", "", "Also report the closest approach of two parts, given as a,b.")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] scene.toml|scene.zy\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	closeLog, err := initLog(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	opts := runOptions{
		ScenePath: flag.Arg(0),
		JSON:      *jsonOut,
		Pair:      *pairFlag,
	}
	err = run(cfg, opts, os.Stdout, os.Stderr)
	closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
