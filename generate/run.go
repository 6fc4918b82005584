package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"cardgen/state"
	"cardgen/template"
)

// Run is the entry point of the generate subcommand: it validates the command
// line, moves the options into the environment and hands off to Make.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("generate")

	if cmd.Args().Len() == 0 {
		return errors.New("no datasource has been specified")
	}
	sources := make([]string, 0, cmd.Args().Len())
	for _, src := range cmd.Args().Slice() {
		abs, err := filepath.Abs(src)
		if err != nil {
			return err
		}
		sources = append(sources, abs)
	}

	out := cmd.String("output")
	if len(out) == 0 {
		if out, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if env.OutputDir, err = filepath.Abs(out); err != nil {
		return err
	}

	if defs := cmd.String("definitions"); len(defs) > 0 {
		if env.DefinitionsPath, err = filepath.Abs(defs); err != nil {
			return err
		}
	}

	if size := cmd.String("size"); len(size) > 0 {
		if _, ok := template.SizeNamed(size); !ok {
			return fmt.Errorf("unknown card size '%s'", size)
		}
		env.CardSizeID = size
	}

	env.Verbose = cmd.Bool("verbose")
	env.Preview = cmd.Bool("preview")
	env.Overwrite = cmd.Bool("overwrite")
	env.DisableBacks = cmd.Bool("disable-backs")
	env.DisableAuto = cmd.Bool("disable-auto")
	env.ForcePageBreaks = cmd.Bool("force-page-breaks")

	// CSV "standard" does not define encoding, we may need to force archaic
	// code page for old files
	cp := cmd.String("force-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully decoding all non UTF-8 datasources", zap.String("charset", n))
		}
	}

	log.Info("Generation starting", zap.Strings("sources", sources), zap.String("destination", env.OutputDir))
	defer func(start time.Time) {
		log.Info("Generation ended", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return Make(ctx, sources)
}
