package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/cnab-dev/cnab/internal/banks"
	"github.com/cnab-dev/cnab/internal/config"
	"github.com/cnab-dev/cnab/internal/extract"
	"github.com/cnab-dev/cnab/internal/ingest"
	"github.com/cnab-dev/cnab/internal/logging"
	"github.com/cnab-dev/cnab/internal/model"
	"github.com/cnab-dev/cnab/internal/schema"
	"github.com/cnab-dev/cnab/internal/schema/builtin"
)

// workspace is the resolved configuration of one CLI invocation.
type workspace struct {
	dir string
	cfg *config.Config
	log *logrus.Logger
}

func openWorkspace(flags *globalFlags) (*workspace, error) {
	dir, err := filepath.Abs(flags.repo)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	path := flags.configPath
	if path == "" {
		path = filepath.Join(dir, config.FileName)
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, dir); err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	return &workspace{
		dir: dir,
		cfg: cfg,
		log: logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr),
	}, nil
}

// loader reads schemas from the workspace schema directory first and falls
// back to the built-in generic layouts.
func (w *workspace) loader() *schema.Loader {
	src := builtin.Source()
	if dir := config.Resolve(w.dir, w.cfg.Schemas.Dir); dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			src = schema.Sources{schema.FSSource{FS: os.DirFS(dir)}, src}
			w.log.WithField("dir", dir).Debug("using workspace schemas")
		}
	}
	return schema.NewLoader(src, schema.WithLogger(w.log))
}

func (w *workspace) banks() (*banks.Service, error) {
	svc, err := banks.LoadOrDefault(config.Resolve(w.dir, w.cfg.Banks.File))
	if err != nil {
		return nil, fmt.Errorf("loading banks: %w", err)
	}
	return svc, nil
}

func (w *workspace) options(format string) (ingest.Options, error) {
	opts := ingest.DefaultOptions()
	opts.Parser.Extract = extract.Options{
		Strict:         w.cfg.Parser.Strict,
		Trim:           w.cfg.Parser.Trim,
		ValidateRanges: w.cfg.Parser.ValidateRanges,
	}
	opts.Parser.SubType = w.cfg.Validation.SubType

	v := w.cfg.Validation
	opts.Validate.Structural = v.Structural
	opts.Validate.Field = v.Field
	opts.Validate.Integrity = v.Integrity
	opts.Validate.Business = v.Business
	opts.Validate.MaxErrorsPerLine = v.MaxErrorsPerLine
	opts.Validate.SubType = v.SubType

	opts.Workers = w.cfg.Workers
	opts.Logger = w.log

	if format != "" {
		f, ok := model.ParseFormat(format)
		if !ok {
			return opts, fmt.Errorf("unknown format %q (want 240 or 400)", format)
		}
		opts.Format = f
	}
	return opts, nil
}

func (w *workspace) service(opts ingest.Options) (*ingest.Service, error) {
	dir, err := w.banks()
	if err != nil {
		return nil, err
	}
	return ingest.New(w.loader(), dir, opts), nil
}
