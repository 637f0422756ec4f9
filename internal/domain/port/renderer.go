package port

import (
	"context"

	"github.com/ego/imaginAIry/internal/animation"
)

// AnimationRenderer writes an assembled sequence to an output file whose
// extension selects the encoder.
type AnimationRenderer interface {
	Render(ctx context.Context, seq *animation.Sequence, outpath string, captions []string) error
}
