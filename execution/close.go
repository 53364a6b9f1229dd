package execution

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cube2222/vtable/logs"
)

// CloseAll calls every close function, even if some of them fail.
// The first error is returned, the remaining ones are logged.
func CloseAll(what string, closers ...func() error) error {
	var first error
	for i, closeFn := range closers {
		if closeFn == nil {
			continue
		}
		if err := closeFn(); err != nil {
			if first == nil {
				first = errors.Wrapf(err, "couldn't close %s input %d", what, i)
				continue
			}
			logs.Logger().Warn("additional error while closing",
				zap.String("node", what),
				zap.Int("input", i),
				zap.Error(err),
			)
		}
	}
	return first
}
