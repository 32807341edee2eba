package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repositories accept this instead of a bare context.Context so callers
// can thread an in-flight transaction through without a second parameter.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

func (c Context) WithTx(tx *gorm.DB) Context {
	c.Tx = tx
	return c
}

func From(ctx context.Context) Context {
	return Context{Ctx: ctx}
}
