package blade

import (
	"context"

	"go.uber.org/zap"
)

// load runs r and follows its extends chain. Each hop renders the layout
// with the viewer's assigned parameters, the previous output as content,
// and the sections and stacks recorded so far.
func (v *Viewer) load(ctx context.Context, r *Renderer) (string, error) {
	hops := 0
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		out, err := r.run(ctx)
		if err != nil {
			return "", err
		}
		if r.extended == nil {
			return out, nil
		}

		hops++
		if hops > v.maxExtendsDepth {
			return "", NewExtendsDepthError(hops, v.maxExtendsDepth)
		}

		target := r.extended
		v.logger.Debug(LogMsgExtendsHop,
			zap.String(LogFieldSource, r.artifact.Source),
			zap.String(LogFieldTarget, target.label()),
			zap.Int(LogFieldDepth, hops))

		artifact, err := v.resolveExtend(ctx, target)
		if err != nil {
			return "", err
		}

		next := NewRenderer(v, artifact, v.Assigned())
		next.content = out
		next.sections = r.sections
		next.stacks = r.stacks
		r = next
	}
}

func (v *Viewer) resolveExtend(ctx context.Context, target *extendTarget) (*Artifact, error) {
	if target.isString {
		return v.CompiledString(ctx, target.id, target.content)
	}
	return v.CompiledFile(ctx, target.name)
}
