// Package commands implements the operations behind yabridgectl's
// subcommands. Each command validates its input, does the work through the
// lower level packages and returns a result value for the CLI to render.
package commands

import (
	"github.com/robbert-vdh/yabridge/pkg/config"
	"github.com/robbert-vdh/yabridge/pkg/filesystem"
	"github.com/robbert-vdh/yabridge/pkg/paths"
	"github.com/robbert-vdh/yabridge/pkg/symbols"
	"github.com/robbert-vdh/yabridge/pkg/types"
	"github.com/robbert-vdh/yabridge/pkg/verify"
)

// Env bundles the collaborators every command operates on. The CLI builds
// one with NewEnv; tests inject a memory filesystem and fake runners.
type Env struct {
	FS     types.FS
	Paths  paths.Paths
	Config *config.Config

	// SymbolRunner invokes winedump when structured PE parsing fails
	SymbolRunner symbols.Runner

	// VerifyRunner invokes the login shell and Wine during verification
	VerifyRunner verify.Runner
}

// NewEnv loads the configuration and wires up the OS backed collaborators.
func NewEnv() (*Env, error) {
	p, err := paths.New()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(p)
	if err != nil {
		return nil, err
	}

	return &Env{
		FS:           filesystem.NewOS(),
		Paths:        p,
		Config:       cfg,
		SymbolRunner: symbols.NewExecRunner(),
		VerifyRunner: verify.NewExecRunner(),
	}, nil
}
