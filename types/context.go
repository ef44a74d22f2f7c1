package types

import (
	"io"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/lepinkainen/ffsimple/config"
	"github.com/lepinkainen/ffsimple/probe"
	"github.com/lepinkainen/ffsimple/utils"
)

// DefaultVersion is the fallback version when AppContext is nil
const DefaultVersion = "dev"

// AppContext holds application-wide context information passed to commands
type AppContext struct {
	Version  string
	Logger   hclog.Logger
	Config   *config.Config
	Cache    *probe.Cache
	Binaries utils.Binaries

	// global flags
	Timeout time.Duration
	Preset  string
	Verbose bool
	Silent  bool

	// Out receives user-facing output; nil means stdout.
	Out io.Writer
}
