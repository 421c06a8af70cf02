// Package opts carries the dependencies shared by all subcommands.
package opts

import (
	"context"

	"github.com/screenwerk/screensync/pkg/config"
	"github.com/screenwerk/screensync/pkg/operation"
	"github.com/screenwerk/screensync/pkg/profile"
	"github.com/screenwerk/screensync/pkg/status"
)

// RootOpts holds the wired collaborators built once per invocation.
type RootOpts struct {
	Config   *config.Config
	Table    *profile.Table
	Operator *operation.Operator
	Out      *status.Logger
}

// Builder constructs RootOpts after flags are parsed.
type Builder func(ctx context.Context) (*RootOpts, error)
