package job

import "slices"

// Frame is one level of the progress stack: Step of Total units of work
// done at that level.
type Frame struct {
	Step  int `json:"step"`
	Total int `json:"total"`
}

// Progress is a snapshot of the progress stack.
//
// Offset is the overall completion in [0, 1]. Each frame divides the current
// step of the frame below it into Total equal parts, so a recursive walk can
// report smooth progress without knowing the size of the tree upfront.
type Progress struct {
	Offset float64 `json:"offset"`
	Frames []Frame `json:"frames,omitempty"`
}

// progressStack is the mutable progress state owned by a Job.
type progressStack struct {
	frames []Frame
	done   bool
}

func (p *progressStack) push(total int) {
	p.frames = append(p.frames, Frame{Total: total})
}

// step advances the innermost frame. Steps past Total are ignored.
func (p *progressStack) step() {
	if len(p.frames) == 0 {
		return
	}
	top := &p.frames[len(p.frames)-1]
	if top.Step < top.Total {
		top.Step++
	}
}

func (p *progressStack) pop() {
	if len(p.frames) > 0 {
		p.frames = p.frames[:len(p.frames)-1]
	}
}

func (p *progressStack) finish() {
	p.frames = nil
	p.done = true
}

func (p *progressStack) snapshot() Progress {
	if p.done {
		return Progress{Offset: 1}
	}

	offset, scale := 0.0, 1.0
	for _, frame := range p.frames {
		if frame.Total <= 0 {
			break
		}
		offset += scale * float64(frame.Step) / float64(frame.Total)
		scale /= float64(frame.Total)
	}
	if offset > 1 {
		offset = 1
	}

	return Progress{Offset: offset, Frames: slices.Clone(p.frames)}
}
