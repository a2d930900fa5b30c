package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/avvvet/punchcard-services/internal/punchcard/decoder"
)

// Decode holds the options every decode run of a process shares.
type Decode struct {
	Policy       decoder.Policy `env:"PUNCHCARD_UNDEFINED_POLICY" envDefault:"skip"`
	Placeholder  string         `env:"PUNCHCARD_PLACEHOLDER"`
	BlankAsSpace bool           `env:"PUNCHCARD_BLANK_AS_SPACE"`
}

func (d Decode) Options() decoder.Options {
	opts := decoder.Options{
		Policy:       d.Policy,
		BlankAsSpace: d.BlankAsSpace,
	}
	for _, r := range d.Placeholder {
		opts.Placeholder = r
		break
	}
	return opts
}

// LoadDecode reads only the decode options.
func LoadDecode() (Decode, error) {
	var d Decode
	if err := env.Parse(&d); err != nil {
		return Decode{}, fmt.Errorf("parse env: %w", err)
	}
	return d, nil
}
