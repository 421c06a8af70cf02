package operation

import (
	"context"
)

// Clean runs the reconciliation half of a pass on its own: destination
// artifacts with no resolvable origin are removed, nothing is produced.
func (o *Operator) Clean(ctx context.Context) (Result, error) {
	var res Result
	var err error
	res.RemovedFiles, res.RemovedDirs, err = o.reconcile(ctx)
	return res, err
}
