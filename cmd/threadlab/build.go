package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soypat/threadcad/kernel"
	"github.com/soypat/threadcad/kernel/sdfkernel"
	"github.com/soypat/threadcad/render"
	"github.com/soypat/threadcad/thread"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newKernel() kernel.Kernel { return sdfkernel.New() }

func (a *app) boltCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bolt",
		Short: "Write an externally threaded rod as STL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.spec()
			if err != nil {
				return err
			}
			bolt, major, err := a.bolt(spec)
			if err != nil {
				return err
			}
			a.log.WithField("major", major).Info("bolt built")
			out, _ := cmd.Flags().GetString("out")
			return a.mesh(bolt, out)
		},
	}
	cmd.Flags().String("out", "bolt.stl", "output STL file")
	return cmd
}

func (a *app) nutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nut",
		Short: "Write a round nut with a mating internal thread as STL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.spec()
			if err != nil {
				return err
			}
			nut, bore, err := a.nut(spec)
			if err != nil {
				return err
			}
			a.log.WithField("bore", bore).Info("nut built")
			out, _ := cmd.Flags().GetString("out")
			return a.mesh(nut, out)
		},
	}
	cmd.Flags().String("out", "nut.stl", "output STL file")
	return cmd
}

func (a *app) pairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Write a bolt and a mating nut as STL files",
		Long: `pair builds the bolt and the nut concurrently and writes bolt.stl and
nut.stl to the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.spec()
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("out-dir")
			var g errgroup.Group
			var major, bore float64
			g.Go(func() error {
				bolt, m, err := a.bolt(spec)
				if err != nil {
					return err
				}
				major = m
				return a.mesh(bolt, filepath.Join(dir, "bolt.stl"))
			})
			g.Go(func() error {
				nut, b, err := a.nut(spec)
				if err != nil {
					return err
				}
				bore = b
				return a.mesh(nut, filepath.Join(dir, "nut.stl"))
			})
			if err := g.Wait(); err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{"major": major, "bore": bore, "play": bore - major}).Info("pair written")
			return nil
		},
	}
	cmd.Flags().String("out-dir", ".", "output directory")
	return cmd
}

func (a *app) canCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "can",
		Short: "Write a threaded can body and screw lid as STL files",
		Long: `can builds a 62mm can with a coarse 8mm pitch thread and its lid. The thread
is replaced by the configured one when --spec or --metric is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs := thread.DefaultCanSpec()
			if a.cfg.GetString("spec") != "" || a.cfg.IsSet("metric") {
				spec, err := a.spec()
				if err != nil {
					return err
				}
				cs.Thread = spec
			}
			can, err := a.ops().Can(cs)
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("out-dir")
			var g errgroup.Group
			g.Go(func() error { return a.mesh(can.Body, filepath.Join(dir, "can.stl")) })
			g.Go(func() error { return a.mesh(can.Lid, filepath.Join(dir, "lid.stl")) })
			return g.Wait()
		},
	}
	cmd.Flags().String("out-dir", ".", "output directory")
	return cmd
}

// bolt builds a chamfered threaded rod from the bolt options.
func (a *app) bolt(spec thread.Spec) (kernel.Solid, float64, error) {
	length, err := a.floatDefault("length")
	if err != nil {
		return nil, 0, err
	}
	threadLength, err := a.floatDefault("thread-length")
	if err != nil {
		return nil, 0, err
	}
	if threadLength == 0 {
		threadLength = length
	}
	chamfer, err := a.floatDefault("chamfer")
	if err != nil {
		return nil, 0, err
	}
	angle, err := a.floatDefault("chamfer-angle")
	if err != nil {
		return nil, 0, err
	}
	ends := thread.RodSpec{
		ChamferBottom: thread.Chamfer{Length: chamfer, AngleDeg: angle},
		ChamferTop:    thread.Chamfer{Length: chamfer, AngleDeg: angle},
	}
	return a.ops().ThreadedRod(spec, length, threadLength, ends)
}

// nut builds a nut from the nut options. A zero radius picks the corner
// radius of the standard hex nut for the fit diameter.
func (a *app) nut(spec thread.Spec) (kernel.Solid, float64, error) {
	height, err := a.floatDefault("nut-height")
	if err != nil {
		return nil, 0, err
	}
	length, err := a.floatDefault("nut-chamfer")
	if err != nil {
		return nil, 0, err
	}
	chamfer := thread.Chamfer{Length: length, AngleDeg: 45}
	f2f := thread.HexFlatToFlat(spec.FitDiameter)
	if a.cfg.GetBool("hex") {
		return a.ops().HexNut(spec, f2f, height, chamfer)
	}
	radius, err := a.floatDefault("nut-radius")
	if err != nil {
		return nil, 0, err
	}
	if radius == 0 {
		radius = thread.HexRadius(f2f)
	}
	return a.ops().Nut(spec, radius, height, chamfer)
}

// mesh renders a solid to a binary STL file.
func (a *app) mesh(solid kernel.Solid, path string) error {
	s, err := sdfkernel.SDF(solid)
	if err != nil {
		return err
	}
	resolution, err := a.floatDefault("resolution")
	if err != nil {
		return err
	}
	if !(resolution > 0) {
		return fmt.Errorf("threadlab: resolution must be positive, got %g", resolution)
	}
	start := time.Now()
	oc := render.NewOctreeRenderer(s, render.CellsForSize(s.Bounds(), resolution))
	oc.Concurrent = a.cfg.GetInt("workers")
	if err := render.CreateSTL(path, oc); err != nil {
		return fmt.Errorf("threadlab: writing %s: %w", path, err)
	}
	a.log.WithFields(logrus.Fields{
		"file":      path,
		"triangles": oc.Triangles(),
		"cells":     oc.Leaves(),
		"elapsed":   time.Since(start).Round(time.Millisecond),
	}).Info("mesh written")
	return nil
}
