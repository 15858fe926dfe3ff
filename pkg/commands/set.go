package commands

import (
	"github.com/robbert-vdh/yabridge/pkg/config"
	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/paths"
)

// SetOptions holds the settings yabridgectl set can change. Nil pointers
// leave the corresponding setting untouched.
type SetOptions struct {
	// Path pins the directory yabridge's files are loaded from
	Path *string
	// PathAuto clears the pin and restores the automatic search
	PathAuto bool
	// Vst2Location switches between "centralized" and "inline"
	Vst2Location *string
	// NoVerify toggles the post-sync setup checks
	NoVerify *bool
}

// SetResult lists the configuration keys that were changed.
type SetResult struct {
	Changed []string
}

// Set updates configuration settings and persists them. At least one
// setting must be given.
func Set(env *Env, opts SetOptions) (*SetResult, error) {
	if opts.Path != nil && opts.PathAuto {
		return nil, errors.New(errors.ErrInvalidInput, "'--path' and '--path-auto' cannot be combined")
	}

	result := &SetResult{}

	if opts.Path != nil {
		expanded := paths.ExpandHome(*opts.Path)
		info, err := env.FS.Stat(expanded)
		if err != nil {
			return nil, errors.Newf(errors.ErrInvalidInput, "'%s' does not exist", *opts.Path)
		}
		if !info.IsDir() {
			return nil, errors.Newf(errors.ErrInvalidInput, "'%s' is not a directory", *opts.Path)
		}

		canonical, err := env.FS.Canonicalize(expanded)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "could not canonicalize '%s'", *opts.Path)
		}

		env.Config.YabridgeHome = canonical
		result.Changed = append(result.Changed, "yabridge_home")
	}
	if opts.PathAuto {
		env.Config.YabridgeHome = ""
		result.Changed = append(result.Changed, "yabridge_home")
	}

	if opts.Vst2Location != nil {
		switch *opts.Vst2Location {
		case string(config.Vst2Centralized):
			env.Config.Vst2Location = config.Vst2Centralized
		case string(config.Vst2Inline):
			env.Config.Vst2Location = config.Vst2Inline
		default:
			return nil, errors.Newf(errors.ErrInvalidInput,
				"invalid value '%s' for '--vst2-location', expected '%s' or '%s'",
				*opts.Vst2Location, config.Vst2Centralized, config.Vst2Inline)
		}
		result.Changed = append(result.Changed, "vst2_location")
	}

	if opts.NoVerify != nil {
		env.Config.NoVerify = *opts.NoVerify
		result.Changed = append(result.Changed, "no_verify")
	}

	if len(result.Changed) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "no settings given, see 'yabridgectl set --help'")
	}

	if err := config.Save(env.Paths, env.Config); err != nil {
		return nil, err
	}
	return result, nil
}
