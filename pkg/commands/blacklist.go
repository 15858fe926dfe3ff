package commands

import (
	"github.com/robbert-vdh/yabridge/pkg/config"
	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/paths"
)

// BlacklistResult reports a blacklist mutation.
type BlacklistResult struct {
	// Path is the canonicalized entry
	Path string
	// Changed is false when the operation was a no-op
	Changed bool
	// Exists is false when nothing is currently at the path. That is
	// allowed, the entry simply has no effect until something appears
	// there, but the CLI mentions it.
	Exists bool
}

// BlacklistAdd excludes a path or whole subtree from plugin scans.
func BlacklistAdd(env *Env, path string) (*BlacklistResult, error) {
	canonical, err := env.FS.Canonicalize(paths.ExpandHome(path))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "could not canonicalize '%s'", path)
	}

	changed := env.Config.AddBlacklist(canonical)
	if changed {
		if err := config.Save(env.Paths, env.Config); err != nil {
			return nil, err
		}
	}

	result := &BlacklistResult{Path: canonical, Changed: changed}
	if _, err := env.FS.Stat(canonical); err == nil {
		result.Exists = true
	}
	return result, nil
}

// BlacklistRemove drops an entry from the blacklist. The entry must be
// present.
func BlacklistRemove(env *Env, path string) (*BlacklistResult, error) {
	canonical, err := env.FS.Canonicalize(paths.ExpandHome(path))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "could not canonicalize '%s'", path)
	}

	if !env.Config.RemoveBlacklist(canonical) {
		return nil, errors.Newf(errors.ErrInvalidInput,
			"'%s' is not in the blacklist, use 'yabridgectl blacklist list' to see the entries", path)
	}
	if err := config.Save(env.Paths, env.Config); err != nil {
		return nil, err
	}

	return &BlacklistResult{Path: canonical, Changed: true, Exists: true}, nil
}

// BlacklistList returns the blacklist entries, sorted.
func BlacklistList(env *Env) []string {
	return append([]string(nil), env.Config.Blacklist...)
}

// BlacklistClear removes every blacklist entry, returning how many there
// were.
func BlacklistClear(env *Env) (int, error) {
	cleared := env.Config.ClearBlacklist()
	if cleared > 0 {
		if err := config.Save(env.Paths, env.Config); err != nil {
			return 0, err
		}
	}
	return cleared, nil
}
