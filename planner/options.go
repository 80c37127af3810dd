package planner

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"mit.edu/dsg/relopt/rel"
	"sigs.k8s.io/yaml"
)

// Options configures a Memo. It is usually read from a YAML file:
//
//	log_level: debug
//	cost_weights:
//	  rows: 1
//	  cpu: 0.5
//	  io: 4
//	check_row_types: true
type Options struct {
	// LogLevel is a zap level name ("debug", "info", "warn", "error").
	LogLevel string `json:"log_level"`
	// CostWeights rank costs in Memo.Less.
	CostWeights rel.CostWeights `json:"cost_weights"`
	// CheckRowTypes makes the Memo verify that registration never changes the
	// row type of the node it was given.
	CheckRowTypes bool `json:"check_row_types"`
}

func DefaultOptions() Options {
	return Options{
		LogLevel:      "info",
		CostWeights:   rel.DefaultCostWeights,
		CheckRowTypes: true,
	}
}

// ParseOptions reads YAML or JSON. Fields that are absent keep their default
// values; unknown fields are an error.
func ParseOptions(data []byte) (Options, error) {
	opts := DefaultOptions()
	if err := yaml.UnmarshalStrict(data, &opts); err != nil {
		return Options{}, errors.Wrap(err, "parsing planner options")
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, errors.Wrapf(err, "reading planner options from %s", path)
	}
	return ParseOptions(data)
}

func (o Options) Validate() error {
	if _, err := o.level(); err != nil {
		return err
	}
	w := o.CostWeights
	if w.Rows < 0 || w.CPU < 0 || w.IO < 0 {
		return errors.Newf("cost weights must not be negative: %+v", w)
	}
	return nil
}

func (o Options) level() (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(o.LogLevel)); err != nil {
		return l, errors.Wrapf(err, "invalid log level %q", o.LogLevel)
	}
	return l, nil
}

// NewLogger builds a production logger at the configured level.
func NewLogger(opts Options) (*zap.Logger, error) {
	level, err := opts.level()
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}
