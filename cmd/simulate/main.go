// Command simulate runs one headless delivery scenario.
//
//	simulate -in scenario.json
//	cat scenario.json | simulate
package main

import (
	"delivery-sim-service/internal/platform/logging"
	"delivery-sim-service/internal/scenario"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	in := flag.String("in", "", "scenario JSON file (default stdin)")
	out := flag.String("out", "", "output file (default stdout)")
	flag.Parse()

	if _, err := logging.Setup("warn", true); err != nil {
		log.Fatal().Err(err).Msg("setup logging")
	}

	var (
		raw []byte
		err error
	)
	if *in == "" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(*in)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("read scenario")
	}

	result, err := scenario.RunJSON(string(raw))
	if err != nil {
		log.Fatal().Err(err).Msg("run scenario")
	}

	if *out == "" {
		fmt.Println(result)
		return
	}
	if err := os.WriteFile(*out, []byte(result+"\n"), 0o644); err != nil {
		log.Fatal().Err(err).Msg("write result")
	}
}
