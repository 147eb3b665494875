package chain

import (
	"context"
	"fmt"
	"image"
)

type ProcessingStep interface {
	Apply(ctx context.Context, input *image.Gray) (*image.Gray, error)
	Name() string
}

// StageObserver is called with every intermediate result, in order. A
// non-nil error stops the chain.
type StageObserver func(ctx context.Context, stage string, output *image.Gray) error

type ProcessingChain struct {
	steps []ProcessingStep
}

func NewProcessingChain(steps []ProcessingStep) *ProcessingChain {
	return &ProcessingChain{
		steps: steps,
	}
}

// Execute feeds input through every step. The input is never modified.
func (pc *ProcessingChain) Execute(ctx context.Context, input *image.Gray, observe StageObserver) (*image.Gray, error) {
	current := input

	for _, step := range pc.steps {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := step.Apply(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("step %s failed: %w", step.Name(), err)
		}

		if observe != nil {
			if err := observe(ctx, step.Name(), result); err != nil {
				return nil, fmt.Errorf("observer for step %s failed: %w", step.Name(), err)
			}
		}

		current = result
	}

	return current, nil
}

func (pc *ProcessingChain) AddStep(step ProcessingStep) {
	pc.steps = append(pc.steps, step)
}

func (pc *ProcessingChain) StepCount() int {
	return len(pc.steps)
}

func (pc *ProcessingChain) GetStepNames() []string {
	names := make([]string, len(pc.steps))
	for i, step := range pc.steps {
		names[i] = step.Name()
	}
	return names
}
