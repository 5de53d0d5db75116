package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/soypat/threadcad/render"
	"github.com/soypat/threadcad/thread"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

func (a *app) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Plot the thread cross section and helix projection",
		Long: `profile writes two plots: the ridge cross section in its local frame and
the XY projection of one turn of the sweep helix.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.spec()
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			helixOut, _ := cmd.Flags().GetString("helix-out")
			if err := plotProfile(spec.Normalized(), out); err != nil {
				return err
			}
			if err := plotHelix(spec.Normalized(), helixOut); err != nil {
				return err
			}
			a.log.WithField("files", []string{out, helixOut}).Info("plots written")
			return nil
		},
	}
	cmd.Flags().String("out", "profile.png", "cross section plot file")
	cmd.Flags().String("helix-out", "helix.png", "helix projection plot file")
	return cmd
}

// plotProfile plots the closed ridge cross section with the axial
// coordinate horizontal.
func plotProfile(spec thread.Spec, path string) error {
	prof := thread.VProfile(spec.Depth, spec.FlankAngleDeg, spec.Tip, spec.TipCutRatio)
	pts := make(plotter.XYs, 0, len(prof.Vertices)+1)
	for _, v := range prof.Vertices {
		pts = append(pts, plotter.XY{X: v.Y, Y: v.X})
	}
	pts = append(pts, pts[0])

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s profile, pitch %g", spec.Tip, spec.Pitch)
	p.X.Label.Text = "axial [mm]"
	p.Y.Label.Text = "radial [mm]"
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	p.Add(line, points, plotter.NewGrid())
	return p.Save(4*vg.Inch, 3*vg.Inch, path)
}

// plotHelix plots one turn of the sweep helix of an external thread
// projected on the XY plane.
func plotHelix(spec thread.Spec, path string) error {
	h := thread.Helix{
		Radius:          spec.FitDiameter/2 - spec.Clearance,
		Pitch:           spec.Pitch,
		Length:          spec.Pitch,
		Handedness:      spec.Handedness,
		SegmentsPerTurn: spec.SegmentsPerTurn,
	}
	samples := h.Samples()
	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i] = plotter.XY{X: s.X, Y: s.Y}
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s hand helix, %d samples per turn", spec.Handedness, spec.SegmentsPerTurn)
	p.X.Label.Text = "x [mm]"
	p.Y.Label.Text = "y [mm]"
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	p.Add(scatter, plotter.NewGrid())
	return p.Save(4*vg.Inch, 4*vg.Inch, path)
}

func (a *app) pitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pitch [diameter...]",
		Short: "Print ISO metric pitches",
		Long: `pitch prints the ISO coarse and fine pitches and the fundamental triangle
height of each diameter given, or of every tabulated diameter.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			diameters := thread.MetricDiameters()
			if len(args) > 0 {
				diameters = diameters[:0]
				for _, arg := range args {
					d, err := cast.ToFloat64E(strings.TrimPrefix(strings.ToUpper(arg), "M"))
					if err != nil {
						return fmt.Errorf("threadlab: bad diameter %q: %w", arg, err)
					}
					diameters = append(diameters, d)
				}
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-6s %-7s %-8s %s\n", "size", "coarse", "H", "fine")
			for _, d := range diameters {
				coarse := thread.CoarsePitch(d)
				fmt.Fprintf(w, "M%-5g %-7g %-8.4f %v\n", d, coarse, thread.FundamentalHeight(coarse), thread.FinePitches(d))
			}
			return nil
		},
	}
}

func (a *app) specCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spec",
		Short: "Print the effective thread spec as TOML",
		Long: `spec prints the thread spec assembled from the spec file, the metric table
and the thread flags. The output can be fed back with --spec.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.spec()
			if err != nil {
				return err
			}
			return thread.WriteSpec(cmd.OutOrStdout(), spec)
		},
	}
}

func (a *app) previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <file.stl>",
		Short: "Render a shaded PNG image of an STL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = strings.TrimSuffix(in, filepath.Ext(in)) + ".png"
			}
			view := render.DefaultView()
			view.Width, _ = cmd.Flags().GetInt("width")
			view.Height, _ = cmd.Flags().GetInt("height")
			if err := render.SavePreview(in, out, view); err != nil {
				return err
			}
			a.log.WithField("file", out).Info("preview written")
			return nil
		},
	}
	cmd.Flags().String("out", "", "output PNG file, defaults to the input name")
	cmd.Flags().Int("width", 768, "image width in pixels")
	cmd.Flags().Int("height", 432, "image height in pixels")
	return cmd
}
