package importer

import (
	"context"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// findGated runs a store lookup under admission control. Only reads are
// gated; writes bypass the controller.
func findGated(ctx context.Context, adm catalog.Admission, find func() (int64, bool, error)) (int64, bool, error) {
	if err := adm.Acquire(ctx); err != nil {
		return 0, false, err
	}
	defer adm.Release()
	return find()
}

// existsGated runs an existence check under admission control.
func existsGated(ctx context.Context, adm catalog.Admission, check func() (bool, error)) (bool, error) {
	if err := adm.Acquire(ctx); err != nil {
		return false, err
	}
	defer adm.Release()
	return check()
}
