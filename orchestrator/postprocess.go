package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lepinkainen/ffsimple/pipeline"
	"github.com/lepinkainen/ffsimple/probe"
	"github.com/lepinkainen/ffsimple/utils"
	"github.com/lepinkainen/ffsimple/video"
)

// Integrity band: ratios inside [lowerBound, upperBound] are normal container
// and rounding noise.
const (
	lowerBound = 0.95
	upperBound = 1.05
)

// Integrity compares the output against what the inputs predicted. A ratio is
// NaN when there was nothing to compare against.
type Integrity struct {
	SizeRatio     float64
	DurationRatio float64
}

// Significant reports whether ratio lies outside the inclusive [0.95, 1.05]
// band. NaN is never significant.
func Significant(ratio float64) bool {
	return ratio < lowerBound || ratio > upperBound
}

// SizeSignificant reports a notable size difference.
func (i Integrity) SizeSignificant() bool { return Significant(i.SizeRatio) }

// DurationSignificant reports a notable duration difference.
func (i Integrity) DurationSignificant() bool { return Significant(i.DurationRatio) }

// CheckIntegrity computes the ratios of out against the plan's aggregate
// input size and its expected output duration.
func CheckIntegrity(plan *pipeline.Plan, out *probe.Metadata) Integrity {
	return Integrity{
		SizeRatio:     ratio(float64(out.Size), float64(plan.InputSize)),
		DurationRatio: ratio(out.Length().Seconds(), ExpectedDuration(plan).Seconds()),
	}
}

func ratio(got, want float64) float64 {
	if want <= 0 {
		return math.NaN()
	}
	return got / want
}

func (o *Orchestrator) postProcess(ctx context.Context, job *Job, rep Reporter) (*Result, error) {
	job.State = StatePostProcessing
	plan := job.Plan
	res := &Result{Job: job, Output: plan.Output}
	warn := func(msg string) {
		res.Warnings = append(res.Warnings, msg)
		o.Logger.Warn(msg, "output", plan.Output)
		rep.Warn(job, msg)
	}

	// the reconciler may have cached the file this run just overwrote
	o.Cache.Forget(plan.Output)

	if plan.RotateMeta != nil {
		if err := o.rotateMeta(ctx, job, *plan.RotateMeta); err != nil {
			return res, err
		}
	}

	meta, err := o.Prober.ProbeFresh(ctx, plan.Output)
	if err != nil {
		warn(fmt.Sprintf("couldn't probe output: %v", err))
	} else {
		res.Metadata = meta
		integrity := CheckIntegrity(plan, meta)
		res.Integrity = &integrity
		if integrity.DurationSignificant() {
			warn(fmt.Sprintf("output duration is %.0f%% of the expected %s", integrity.DurationRatio*100, ExpectedDuration(plan).Round(time.Second)))
		}
		if integrity.SizeSignificant() {
			o.Logger.Debug("output size differs from input", "ratio", integrity.SizeRatio)
		}
	}

	if job.Options.VerifyFrames {
		distance, err := o.verifyFrames(ctx, job, meta)
		switch {
		case err != nil:
			warn(fmt.Sprintf("couldn't compare frames: %v", err))
		default:
			res.FrameDistance = &distance
			if distance > o.FrameThreshold {
				warn(fmt.Sprintf("output frame differs from input (distance %d > %d)", distance, o.FrameThreshold))
			}
		}
	}

	if job.Options.Replace {
		if len(job.Inputs) != 1 {
			warn(fmt.Sprintf("replace needs exactly one input, got %d; output kept at %s", len(job.Inputs), plan.Output))
			return res, nil
		}
		target := job.Inputs[0]
		var backupErr *BackupError
		err := ReplaceFile(target, plan.Output, o.discard(job.Options.Permanent))
		switch {
		case errors.As(err, &backupErr):
			warn(backupErr.Error())
		case err != nil:
			return res, err
		}
		o.Cache.Forget(plan.Output)
		o.Cache.Forget(target)
		if res.Metadata != nil {
			moved := *res.Metadata
			moved.Path = target
			res.Metadata = &moved
			o.Cache.Put(&moved)
		}
		res.Output = target
	}
	return res, nil
}

// rotateMeta rewrites the output with a stream-copy sub-job that only sets the
// rotation tag, then swaps the result over the output.
func (o *Orchestrator) rotateMeta(ctx context.Context, job *Job, degrees int) error {
	output := job.Plan.Output
	ext := filepath.Ext(output)
	temp := strings.TrimSuffix(output, ext) + ".rotate-" + uuid.NewString()[:8] + ext

	sub := pipeline.JobOptions{
		Input:     output,
		Output:    temp,
		Codec:     "copy",
		Silent:    true,
		Overwrite: true,
		Permanent: true,
		OutputOptions: []string{
			"-map 0",
			fmt.Sprintf("-metadata:s:v:0 rotate=%d", degrees),
		},
	}
	o.Logger.Debug("writing rotation metadata", "output", output, "degrees", degrees)
	if _, err := o.Convert(ctx, sub); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("rotate metadata pass failed: %w", err)
	}

	if err := o.discard(job.Options.Permanent)(output); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("failed to remove unrotated output: %w", err)
	}
	if err := utils.MoveFile(temp, output); err != nil {
		return fmt.Errorf("failed to move rotated output into place, rotated file kept at %s: %w", temp, err)
	}
	o.Cache.Forget(temp)
	o.Cache.Forget(output)
	return nil
}

// verifyFrames compares a frame from the middle of the output with the input
// frame it was made from.
func (o *Orchestrator) verifyFrames(ctx context.Context, job *Job, out *probe.Metadata) (int, error) {
	if len(job.Inputs) != 1 {
		return 0, fmt.Errorf("frame comparison needs exactly one input, got %d", len(job.Inputs))
	}
	if out == nil {
		return 0, fmt.Errorf("output metadata unavailable")
	}
	if !out.HasVideo {
		return 0, fmt.Errorf("output has no video stream")
	}

	atOut := out.Length() / 2
	atIn := atOut
	if speed := job.Options.Speed; speed > 0 {
		atIn = time.Duration(float64(atOut) * speed)
	}
	atIn += parseTime(job.Options.From)

	return video.FrameDistance(ctx, o.FFmpeg, job.Inputs[0], atIn, job.Plan.Output, atOut)
}

func (o *Orchestrator) discard(permanent bool) func(string) error {
	if permanent || o.Trash == nil {
		return os.Remove
	}
	return o.Trash.Trash
}

// ReplaceError reports a failed replace-in-place. Err joins every failure
// met along the way, including a failed restore of the backup.
type ReplaceError struct {
	Target      string
	Replacement string
	Backup      string
	// Restored is false when the backup could not be moved back.
	Restored bool
	Err      error
}

func (e *ReplaceError) Error() string {
	msg := fmt.Sprintf("failed to replace %s with %s: %v", e.Target, e.Replacement, e.Err)
	if !e.Restored && e.Backup != "" {
		msg += fmt.Sprintf(" (original kept at %s)", e.Backup)
	}
	return msg
}

func (e *ReplaceError) Unwrap() error { return e.Err }

// BackupError reports a replace that succeeded but left the backup of the
// original behind.
type BackupError struct {
	Target string
	Backup string
	Err    error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("replaced %s but failed to remove backup, original left at %s: %v", e.Target, e.Backup, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// ReplaceFile moves replacement over target. target is first renamed to
// "<target>.bkp"; if the move fails the backup is restored, otherwise the
// backup is handed to discard (os.Remove when nil). A failed discard comes
// back as a *BackupError with target already replaced.
func ReplaceFile(target, replacement string, discard func(string) error) error {
	if discard == nil {
		discard = os.Remove
	}
	backup := target + ".bkp"
	if utils.Exists(backup) {
		return &ReplaceError{Target: target, Replacement: replacement, Restored: true,
			Err: fmt.Errorf("backup path %s already exists", backup)}
	}
	if err := os.Rename(target, backup); err != nil {
		return &ReplaceError{Target: target, Replacement: replacement, Restored: true,
			Err: fmt.Errorf("failed to back up original: %w", err)}
	}

	if moveErr := utils.MoveFile(replacement, target); moveErr != nil {
		rerr := &ReplaceError{Target: target, Replacement: replacement, Backup: backup, Restored: true}
		errs := []error{fmt.Errorf("failed to move replacement: %w", moveErr)}
		if err := os.Rename(backup, target); err != nil {
			rerr.Restored = false
			errs = append(errs, fmt.Errorf("failed to restore backup: %w", err))
		}
		rerr.Err = errors.Join(errs...)
		return rerr
	}

	if err := discard(backup); err != nil {
		return &BackupError{Target: target, Backup: backup, Err: err}
	}
	return nil
}
