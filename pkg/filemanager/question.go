package filemanager

import (
	"context"
	"errors"

	"github.com/marmos91/dittodrive/pkg/job"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// OverwriteQuestion is asked by move and copy jobs when the destination
// folder already holds a file with the same name.
type OverwriteQuestion struct {
	// Source is the file being moved or copied.
	Source metadata.Reference `json:"source"`

	// Destination is the existing file that would be replaced.
	Destination metadata.Reference `json:"destination"`
}

// OverwriteAnswer answers an OverwriteQuestion.
type OverwriteAnswer struct {
	// Overwrite replaces the existing file when true.
	Overwrite bool `json:"overwrite"`

	// AskAgain set to false applies Overwrite to every later collision of
	// the same job.
	AskAgain bool `json:"ask_again"`
}

// DefaultOverwriteAnswer is the answer a UI should preselect.
func DefaultOverwriteAnswer() OverwriteAnswer {
	return OverwriteAnswer{Overwrite: true, AskAgain: true}
}

// overwritePolicy decides collisions for one job.
//
// An unanswered question (timeout, cancellation) counts as "keep the
// existing file" and that decision sticks for the rest of the job so an
// abandoned job does not wait once per collision.
type overwritePolicy struct {
	interactive bool
	remembered  *bool
}

func (p *overwritePolicy) shouldOverwrite(ctx context.Context, j *job.Job, source, destination metadata.Reference) bool {
	if !p.interactive {
		return false
	}
	if p.remembered != nil {
		return *p.remembered
	}

	answer, err := j.Ask(ctx, OverwriteQuestion{Source: source, Destination: destination})
	if err != nil {
		if errors.Is(err, job.ErrQuestionTimeout) || ctx.Err() != nil {
			j.Log().Warn("The overwrite question for [%s] was not answered, keeping the existing file: %v", destination, err)
			p.remember(false)
		} else {
			j.Log().Warn("Failed to ask whether to overwrite [%s]: %v", destination, err)
		}
		return false
	}

	overwrite, ok := answer.(OverwriteAnswer)
	if !ok {
		j.Log().Warn("Unexpected answer %T to the overwrite question for [%s], keeping the existing file", answer, destination)
		return false
	}

	if !overwrite.AskAgain {
		p.remember(overwrite.Overwrite)
	}
	return overwrite.Overwrite
}

func (p *overwritePolicy) remember(overwrite bool) {
	p.remembered = &overwrite
}
