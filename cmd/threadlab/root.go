package main

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/soypat/threadcad/thread"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app holds the configuration and logger shared by every subcommand.
type app struct {
	cfg *viper.Viper
	log *logrus.Logger
}

// option is a configuration variable settable by flag, environment
// variable or configuration file. The first flag set owns the flag and
// the rest share it.
type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func newApp() *app {
	a := &app{cfg: viper.New(), log: logrus.New()}
	a.cfg.SetEnvPrefix("THREADLAB")
	a.cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.cfg.AutomaticEnv()
	return a
}

// rootCmd builds the command tree and binds every option to the app's
// configuration.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "threadlab",
		Short: "Generate mating screw threads as STL meshes.",
		Long: `threadlab builds externally threaded rods and matching internally threaded
parts from a handful of thread parameters and writes them as binary STL.

Configuration can be given with command-line flags, with a TOML thread spec
(--spec), with a configuration file (--config) or with environment variables
in the format 'THREADLAB_var' where 'var' is the flag name with dashes
replaced by underscores. Flags take precedence over the spec file.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return a.setup() },
	}
	bolt := a.boltCmd()
	nut := a.nutCmd()
	pair := a.pairCmd()
	can := a.canCmd()
	profile := a.profileCmd()
	preview := a.previewCmd()
	root.AddCommand(bolt, nut, pair, can, profile, preview, a.pitchCmd(), a.specCmd())

	persistent := []*pflag.FlagSet{root.PersistentFlags()}
	boltFlags := []*pflag.FlagSet{bolt.Flags(), pair.Flags()}
	nutFlags := []*pflag.FlagSet{nut.Flags(), pair.Flags()}
	a.bind([]option{
		{name: "config", usage: "configuration file location", defaultVal: "", flagsets: persistent},
		{name: "verbose", shorthand: "v", usage: "log every kernel stage", defaultVal: false, flagsets: persistent},
		{name: "log-json", usage: "log as JSON", defaultVal: false, flagsets: persistent},

		{name: "spec", usage: "TOML thread spec file, see 'threadlab spec'", defaultVal: "", flagsets: persistent},
		{name: "metric", usage: "start from the ISO metric thread of this nominal diameter [mm]", defaultVal: 0.0, flagsets: persistent},
		{name: "fit-diameter", usage: "nominal diameter of the mating bore [mm]", defaultVal: 0.0, flagsets: persistent},
		{name: "pitch", usage: "axial distance between crests [mm]", defaultVal: 0.0, flagsets: persistent},
		{name: "depth", usage: "radial ridge height [mm]", defaultVal: 0.0, flagsets: persistent},
		{name: "flank", usage: "included flank angle [deg]", defaultVal: 0.0, flagsets: persistent},
		{name: "clearance", usage: "radial clearance removed from external threads [mm]", defaultVal: 0.0, flagsets: persistent},
		{name: "left", usage: "left hand thread", defaultVal: false, flagsets: persistent},
		{name: "tip", usage: "ridge tip style, cut or sharp", defaultVal: "", flagsets: persistent},
		{name: "tip-cut-ratio", usage: "fraction of the depth cut off a cut tip", defaultVal: 0.0, flagsets: persistent},
		{name: "segments", usage: "helix samples per turn", defaultVal: 0, flagsets: persistent},
		{name: "keep-overhang", usage: "do not clip external ridges to the threaded length", defaultVal: false, flagsets: persistent},

		{name: "resolution", usage: "mesh cell size [mm]", defaultVal: 0.1, flagsets: persistent},
		{name: "workers", usage: "goroutines used for meshing", defaultVal: runtime.NumCPU(), flagsets: persistent},

		{name: "length", usage: "bolt length [mm]", defaultVal: 30.0, flagsets: boltFlags},
		{name: "thread-length", usage: "threaded length of the bolt, 0 for full length [mm]", defaultVal: 0.0, flagsets: boltFlags},
		{name: "chamfer", usage: "bolt end chamfer length [mm]", defaultVal: 0.5, flagsets: boltFlags},
		{name: "chamfer-angle", usage: "bolt end chamfer angle from the axis [deg]", defaultVal: 45.0, flagsets: boltFlags},

		{name: "hex", usage: "hexagonal nut with the metric wrench size", defaultVal: false, flagsets: nutFlags},
		{name: "nut-radius", usage: "outer radius of a round nut, 0 picks the hex corner radius [mm]", defaultVal: 0.0, flagsets: nutFlags},
		{name: "nut-height", usage: "nut height [mm]", defaultVal: 10.0, flagsets: nutFlags},
		{name: "nut-chamfer", usage: "nut bore chamfer length [mm]", defaultVal: 1.0, flagsets: nutFlags},
	})
	return root
}

// bind creates the flags of each option and binds them to the configuration.
func (a *app) bind(options []option) {
	for _, opt := range options {
		for i, set := range opt.flagsets {
			if i != 0 {
				set.AddFlag(opt.flagsets[0].Lookup(opt.name))
				continue
			}
			switch v := opt.defaultVal.(type) {
			case string:
				set.StringP(opt.name, opt.shorthand, v, opt.usage)
			case bool:
				set.BoolP(opt.name, opt.shorthand, v, opt.usage)
			case int:
				set.IntP(opt.name, opt.shorthand, v, opt.usage)
			case float64:
				set.Float64P(opt.name, opt.shorthand, v, opt.usage)
			default:
				panic("invalid option type")
			}
			a.cfg.BindPFlag(opt.name, set.Lookup(opt.name))
		}
	}
}

// setup reads the configuration file, if there is one, and configures logging.
func (a *app) setup() error {
	if path := a.cfg.GetString("config"); path != "" {
		a.cfg.SetConfigFile(path)
		if err := a.cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("threadlab: problem reading configuration file: %v", err)
		}
	}
	a.log.SetLevel(logrus.InfoLevel)
	if a.cfg.GetBool("verbose") {
		a.log.SetLevel(logrus.DebugLevel)
	}
	if a.cfg.GetBool("log-json") {
		a.log.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

// float returns a configured float, reporting whether it was set anywhere
// other than a flag default.
func (a *app) float(key string) (float64, bool, error) {
	if !a.cfg.IsSet(key) {
		return 0, false, nil
	}
	v, err := cast.ToFloat64E(a.cfg.Get(key))
	if err != nil {
		return 0, false, fmt.Errorf("threadlab: %s: %w", key, err)
	}
	return v, true, nil
}

func (a *app) floatDefault(key string) (float64, error) {
	v, err := cast.ToFloat64E(a.cfg.Get(key))
	if err != nil {
		return 0, fmt.Errorf("threadlab: %s: %w", key, err)
	}
	return v, nil
}

// spec assembles the thread spec: the ISO metric table or the spec file
// first, then individually set parameters on top.
func (a *app) spec() (thread.Spec, error) {
	s := thread.DefaultSpec()
	path := a.cfg.GetString("spec")
	metric, hasMetric, err := a.float("metric")
	if err != nil {
		return s, err
	}
	switch {
	case path != "" && hasMetric:
		return s, errors.New("threadlab: use either --spec or --metric")
	case path != "":
		if s, err = thread.LoadSpecFile(path); err != nil {
			return s, fmt.Errorf("threadlab: %w", err)
		}
	case hasMetric:
		pitch, _, err := a.float("pitch")
		if err != nil {
			return s, err
		}
		if s, err = thread.MetricSpec(metric, pitch); err != nil {
			return s, err
		}
	}
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"fit-diameter", &s.FitDiameter},
		{"pitch", &s.Pitch},
		{"depth", &s.Depth},
		{"flank", &s.FlankAngleDeg},
		{"clearance", &s.Clearance},
		{"tip-cut-ratio", &s.TipCutRatio},
	} {
		v, ok, err := a.float(f.key)
		if err != nil {
			return s, err
		}
		if ok {
			*f.dst = v
		}
	}
	if a.cfg.IsSet("segments") {
		n, err := cast.ToIntE(a.cfg.Get("segments"))
		if err != nil {
			return s, fmt.Errorf("threadlab: segments: %w", err)
		}
		s.SegmentsPerTurn = n
	}
	if a.cfg.IsSet("left") {
		left, err := cast.ToBoolE(a.cfg.Get("left"))
		if err != nil {
			return s, fmt.Errorf("threadlab: left: %w", err)
		}
		s.Handedness = thread.RightHand
		if left {
			s.Handedness = thread.LeftHand
		}
	}
	if a.cfg.IsSet("tip") {
		if err := s.Tip.UnmarshalText([]byte(a.cfg.GetString("tip"))); err != nil {
			return s, fmt.Errorf("threadlab: %w", err)
		}
	}
	return s, nil
}

// ops returns thread operations logging to the app's logger.
func (a *app) ops() *thread.Ops {
	o := thread.New(newKernel())
	o.Log = a.log
	o.KeepOverhang = a.cfg.GetBool("keep-overhang")
	return o
}
