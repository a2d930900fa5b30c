package main

import (
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/punchcard-services/configs"
	"github.com/avvvet/punchcard-services/internal/punchcard/batch"
	"github.com/avvvet/punchcard-services/internal/punchcard/cipher"
)

const SERVICE_NAME = "punchcard"

type cliConfig struct {
	File   string `env:"PUNCHCARD_FILE"`
	LogDir string `env:"PUNCHCARD_LOG_DIR"`
	Decode config.Decode
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	config.LoadEnvOptional(SERVICE_NAME)

	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %s\n", err)
		return 2
	}

	if cfg.LogDir != "" {
		config.LoggingTo(cfg.LogDir, SERVICE_NAME)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	path := cfg.File
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		fmt.Fprintln(stderr, "usage: punchcard <cards file> (or set PUNCHCARD_FILE)")
		return 2
	}

	table, err := cipher.Build()
	if err != nil {
		log.Errorf("unable to build cipher table: %s", err)
		return 1
	}
	driver := batch.NewDriver(table, cfg.Decode.Options())

	p := batch.NewPrinter(stdout)
	p.Banner()

	p.Progress(batch.StepReading)
	raw, err := batch.ReadFile(path)
	if err != nil {
		// stderr logging stops at warn level, so this only reaches a log file
		log.Infof("unable to read deck: %s", err)
		fmt.Fprintf(stderr, "Invalid file path. Please reload with a proper file path.\n%s\n", err)
		return 1
	}

	p.Progress(batch.StepParsing)
	deck := driver.Parse(raw)
	log.Infof("%s: %d cards, %d skipped lines", path, len(deck.Cards), len(deck.Warnings))

	p.Progress(batch.StepDecoding)
	b := driver.Decode(deck)

	p.Progress(batch.StepPrinting)
	p.Messages(b)

	if n := b.Failed(); n > 0 {
		log.Warnf("%d of %d cards could not be decoded", n, len(b.Results))
	}
	return 0
}
