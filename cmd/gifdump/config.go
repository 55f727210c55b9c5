package main

import (
	"errors"
	"flag"
	"io/ioutil"
	"os"

	"github.com/naoina/toml"
)

var (
	outDir      = flag.String("outdir", "", "directory to write extracted PNG frames into (defaults to <input>-frames)")
	composite   = flag.Bool("composite", false, "emit full-canvas composited frames instead of raw sub-images")
	showVersion = flag.Bool("version", false, "show version and exit")
)

// gifdumpConfig mirrors the shape of an optional gifdump.toml, letting an
// operator pin defaults without repeating flags on every invocation. Flags
// passed on the command line always win over the file.
type gifdumpConfig struct {
	Output struct {
		Dir       string
		Composite bool
	}
}

// loadToml looks for gifdump.toml in the working directory, then
// /etc/gifdump.toml. Absence of both is not an error: gifdump runs fine
// on flags and defaults alone.
func loadToml() (*gifdumpConfig, error) {
	f, err := os.Open("gifdump.toml")
	if err != nil {
		f, err = os.Open("/etc/gifdump.toml")
		if err != nil {
			return nil, nil
		}
	}
	defer f.Close()

	buf, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, errors.New("gifdump: read failed for gifdump.toml")
	}

	var cfg gifdumpConfig
	if err := toml.Unmarshal(buf, &cfg); err != nil {
		return nil, errors.New("gifdump: toml unmarshal failed")
	}
	return &cfg, nil
}
