// Package config implements the layered CLI/file configuration
// described in SPEC_FULL.md §2.3: flag.FlagSet-registered command
// line flags (the global `-T`/`-P`/`-C`/`-v` flags of spec.md §6.3)
// with a `-C <file>` TOML file layered underneath them.
//
// Grounded on the teacher's ScalaConfigurer/JvmConfigurer
// (scala/config.go, jvm/config.go): a RegisterFlags(fs, ...) step
// followed by a separate step that reconciles flags against directive
// input, with a parent/child NewChild inheritance for nested scopes.
// µcad has no bazel-package tree to nest configs under, so the
// parent/child relationship here is files-layer-under-flags rather
// than package-layer-under-package: ApplyFile only fills in a field
// the command line left at its zero value, the same "explicit wins"
// precedence NewChild gives an inner package over its parent.
package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Export holds the default exporter id to use for each model output
// type when neither an `export` attribute nor an explicit output
// filename names one (original_source/tools/cli/commands/export.rs's
// `config.export.sketch`/`config.export.part`).
type Export struct {
	Sketch string `toml:"sketch"`
	Part   string `toml:"part"`
}

// Config is the resolved configuration for one CLI invocation.
type Config struct {
	Time            bool
	SearchPaths     []string
	OmitDefaultLibs bool
	ConfigFile      string
	Verbose         int
	Export          Export
	DefaultResolution string
}

// FileConfig is the shape of a `-C` TOML file. Only fields a command
// line flag does not already pin down are layered in by ApplyFile.
type FileConfig struct {
	SearchPaths       []string `toml:"search_paths"`
	Export            Export   `toml:"export"`
	DefaultResolution string   `toml:"default_resolution"`
}

// searchPaths implements flag.Value for a repeatable `-P` flag,
// mirroring the teacher's filePathsArg (scala/main.go): each
// occurrence appends, and a comma-separated value splits into several.
type searchPaths []string

func (s *searchPaths) String() string { return strings.Join(*s, ",") }

func (s *searchPaths) Set(v string) error {
	if strings.ContainsRune(v, ',') {
		*s = append(*s, strings.Split(v, ",")...)
	} else {
		*s = append(*s, v)
	}
	return nil
}

// verboseCount implements flag.Value for a repeatable `-v` flag
// (spec.md §6.3's "-v (verbose)"), counted the way clap's
// ArgAction::Count tallies repeated short flags in cli.rs.
type verboseCount int

func (v *verboseCount) String() string { return "" }

func (v *verboseCount) Set(string) error {
	*v++
	return nil
}

// Default returns a Config with the same defaults
// original_source/tools/cli/cli.rs's Config::default() and
// export.rs's resolution default ("0.1mm") use.
func Default() *Config {
	return &Config{
		Export:            Export{Sketch: "svg", Part: "ply"},
		DefaultResolution: "0.1mm",
	}
}

// RegisterFlags binds the global flags of spec.md §6.3 onto fs,
// returning the Config they populate once fs.Parse runs. Called once
// per subcommand's FlagSet, since clap's `global = true` makes these
// available under every subcommand.
func RegisterFlags(fs *flag.FlagSet) *Config {
	cfg := Default()
	fs.BoolVar(&cfg.Time, "T", false, "display processing time")
	fs.Var((*searchPaths)(&cfg.SearchPaths), "P", "path to search for files (repeatable)")
	fs.BoolVar(&cfg.OmitDefaultLibs, "omit-default-libs", false, "do not append the default search paths")
	fs.StringVar(&cfg.ConfigFile, "C", "", "load config from file")
	fs.Var((*verboseCount)(&cfg.Verbose), "v", "increase verbosity (repeatable)")
	return cfg
}

// ApplyFile loads the TOML file named by cfg.ConfigFile (or, if unset,
// the first of DefaultLocations that exists) and layers its values
// under cfg: a field a flag already set explicitly on fs is left
// alone, anything else is filled in from the file. It is a no-op if
// no config file is found anywhere.
func (cfg *Config) ApplyFile(fs *flag.FlagSet) error {
	path := cfg.ConfigFile
	if path == "" {
		for _, loc := range DefaultLocations() {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
		if path == "" {
			return nil
		}
	}

	var fc FileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return err
	}

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if !explicit["P"] {
		cfg.SearchPaths = append(cfg.SearchPaths, fc.SearchPaths...)
	}
	if fc.Export.Sketch != "" {
		cfg.Export.Sketch = fc.Export.Sketch
	}
	if fc.Export.Part != "" {
		cfg.Export.Part = fc.Export.Part
	}
	if fc.DefaultResolution != "" {
		cfg.DefaultResolution = fc.DefaultResolution
	}
	return nil
}

// DefaultSearchPaths returns "./lib" and the user config dir's "lib"
// subdirectory, whichever exist, mirroring
// original_source/tools/cli/cli.rs's Cli::default_search_paths.
func DefaultSearchPaths() []string {
	var out []string
	if dir := GlobalRootDir(); dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			out = append(out, dir)
		}
	}
	if info, err := os.Stat("./lib"); err == nil && info.IsDir() {
		out = append(out, "./lib")
	}
	return out
}

// ConfigDir returns "~/.config/ucad", even if it does not yet exist.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ucad")
}

// GlobalRootDir returns "~/.config/ucad/lib", even if it does not yet
// exist (original_source/tools/cli/cli.rs's global_root_dir).
func GlobalRootDir() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "lib")
}

// DefaultLocations lists the paths ApplyFile checks, in order, when no
// `-C` flag was given (gavlooth-codeloom's internal/config.Load tries
// ".codeloom/config.toml", "$HOME/.codeloom/config.toml" and
// "/etc/codeloom/config.toml" in the same try-in-order style).
func DefaultLocations() []string {
	var out []string
	if dir := ConfigDir(); dir != "" {
		out = append(out, filepath.Join(dir, "config.toml"))
	}
	out = append(out, "/etc/ucad/config.toml")
	return out
}
