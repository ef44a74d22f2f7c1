// Package reconcile settles the output path of a job against files that
// already exist there.
package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/lepinkainen/ffsimple/probe"
	"github.com/lepinkainen/ffsimple/utils"
)

// DefaultMaxRenameAttempts bounds the " (n)" suffixes tried by a rename.
const DefaultMaxRenameAttempts = 100

// Choice is an operator decision about an existing output.
type Choice int

const (
	ChoiceOverwrite Choice = iota
	ChoiceCancel
	ChoiceRename
)

// Choices lists every decision in prompt order.
var Choices = []Choice{ChoiceOverwrite, ChoiceCancel, ChoiceRename}

func (c Choice) String() string {
	switch c {
	case ChoiceOverwrite:
		return "overwrite"
	case ChoiceCancel:
		return "cancel"
	case ChoiceRename:
		return "rename"
	default:
		return fmt.Sprintf("Choice(%d)", int(c))
	}
}

// Question is what a Prompter is asked about an existing output.
type Question struct {
	Path     string
	Existing *probe.Metadata // nil when the file could not be probed
	Choices  []Choice
}

// Prompter asks the operator what to do with an existing output.
type Prompter interface {
	Choose(ctx context.Context, q Question) (Choice, error)
}

// Trasher moves a file out of the way recoverably.
type Trasher interface {
	Trash(path string) error
}

// MetadataProber reads an existing output, bypassing any cache.
type MetadataProber interface {
	ProbeFresh(ctx context.Context, path string) (*probe.Metadata, error)
}

// Policy selects how an existing output is handled. Skip wins over Overwrite;
// Quiet turns the prompt into an Unanswered result.
type Policy struct {
	Skip              bool
	Overwrite         bool
	Quiet             bool
	Permanent         bool // remove instead of trashing
	MaxRenameAttempts int
}

// Result is the settled output. Exactly one of OK, Cancelled, Skipped and
// Unanswered is set.
type Result struct {
	Output     string
	OK         bool
	Cancelled  bool
	Skipped    bool
	Unanswered bool
	Existing   *probe.Metadata
	Unreadable bool
}

// Reconciler settles candidate outputs.
type Reconciler struct {
	prober   MetadataProber
	trasher  Trasher
	prompter Prompter
	logger   hclog.Logger
}

// New creates a Reconciler. A nil prompter behaves like Policy.Quiet; a nil
// trasher removes files permanently.
func New(prober MetadataProber, trasher Trasher, prompter Prompter, logger hclog.Logger) *Reconciler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Reconciler{
		prober:   prober,
		trasher:  trasher,
		prompter: prompter,
		logger:   logger.Named("reconcile"),
	}
}

// Reconcile decides the final output path for candidate. A Cancelled result
// comes with ErrCancelled and an Unanswered one with ErrUnanswered. The
// parent directory is only created for an OK result.
func (r *Reconciler) Reconcile(ctx context.Context, candidate string, policy Policy) (Result, error) {
	if candidate == "" {
		return Result{}, fmt.Errorf("empty output path")
	}

	info, err := os.Stat(candidate)
	if os.IsNotExist(err) {
		return r.commit(Result{Output: candidate})
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat output %s: %w", candidate, err)
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("output %s is a directory", candidate)
	}

	res := Result{Output: candidate}
	if r.prober != nil {
		existing, err := r.prober.ProbeFresh(ctx, candidate)
		if err != nil {
			r.logger.Warn("existing output is unreadable", "path", candidate, "error", err)
			res.Unreadable = true
		} else {
			res.Existing = existing
		}
	} else {
		res.Unreadable = true
	}

	switch {
	case policy.Skip:
		r.logger.Debug("skipping existing output", "path", candidate)
		res.Skipped = true
		return res, nil
	case policy.Overwrite:
		return r.overwrite(res, policy)
	case policy.Quiet || r.prompter == nil:
		res.Unanswered = true
		return res, ErrUnanswered
	}

	choice, err := r.prompter.Choose(ctx, Question{Path: candidate, Existing: res.Existing, Choices: Choices})
	if err != nil {
		return Result{}, fmt.Errorf("failed to ask about %s: %w", candidate, err)
	}
	r.logger.Debug("operator choice", "path", candidate, "choice", choice)

	switch choice {
	case ChoiceOverwrite:
		return r.overwrite(res, policy)
	case ChoiceRename:
		renamed, err := FreeName(candidate, policy.MaxRenameAttempts)
		if err != nil {
			return Result{}, err
		}
		return r.commit(Result{Output: renamed, Existing: res.Existing, Unreadable: res.Unreadable})
	default:
		res.Cancelled = true
		return res, ErrCancelled
	}
}

func (r *Reconciler) overwrite(res Result, policy Policy) (Result, error) {
	if policy.Permanent || r.trasher == nil {
		if err := os.Remove(res.Output); err != nil {
			return Result{}, fmt.Errorf("failed to remove existing output: %w", err)
		}
	} else if err := r.trasher.Trash(res.Output); err != nil {
		return Result{}, fmt.Errorf("failed to trash existing output: %w", err)
	}
	r.logger.Info("replaced existing output", "path", res.Output, "permanent", policy.Permanent)
	return r.commit(res)
}

func (r *Reconciler) commit(res Result) (Result, error) {
	if err := utils.EnsureParentDir(res.Output); err != nil {
		return Result{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	res.OK = true
	return res, nil
}

// FreeName returns the first "<name> (n)<ext>" next to path that does not
// exist, trying n from 1 to max.
func FreeName(path string, max int) (string, error) {
	if max <= 0 {
		max = DefaultMaxRenameAttempts
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 1; n <= max; n++ {
		alt := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if _, err := os.Lstat(alt); os.IsNotExist(err) {
			return alt, nil
		}
	}
	return "", &RenameExhaustedError{Path: path, Attempts: max}
}
