package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lepinkainen/ffsimple/pipeline"
	"github.com/lepinkainen/ffsimple/types"
	"github.com/lepinkainen/ffsimple/video"
)

// ProbeCmd prints the normalized metadata of media files as JSON.
type ProbeCmd struct {
	Inputs []string `arg:"" name:"inputs" help:"Files, directories or glob patterns to probe"`
}

func (cmd *ProbeCmd) Run(appCtx *types.AppContext, ctx context.Context) error {
	files, err := video.ExpandInputs(cmd.Inputs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return &pipeline.NoInputError{Patterns: cmd.Inputs}
	}

	metas, err := newProber(appCtx).ProbeAll(ctx, files)
	if err != nil {
		return err
	}

	var doc any = metas
	if len(metas) == 1 {
		doc = metas[0]
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	fmt.Fprintln(output(appCtx), string(data))
	return nil
}
