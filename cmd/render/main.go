package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bdpt-renderer/internal/assets"
	"bdpt-renderer/internal/batch"
	"bdpt-renderer/internal/config"
	"bdpt-renderer/internal/log"
	"bdpt-renderer/internal/material"
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/render"
	"bdpt-renderer/internal/sensor"

	"github.com/urfave/cli"
)

var logger = log.New("render")

func main() {
	app := cli.NewApp()
	app.Name = "render"
	app.Usage = "render a scene description with bidirectional path tracing"
	app.ArgsUsage = "[scene.json]"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "JSON config file; flags override its values"},
		cli.StringFlag{Name: "input, i", Usage: "scene description (.json)"},
		cli.StringFlag{Name: "output, o", Usage: "output image (.png, .jpg, .bmp, .tga, .webp, .pfm; default render_image.png)"},
		cli.IntFlag{Name: "width, r", Usage: "image width (default 800)"},
		cli.IntFlag{Name: "height", Usage: "image height (default width/aspect)"},
		cli.Float64Flag{Name: "aspect", Usage: "width-to-height ratio (default 4/3)"},
		cli.IntFlag{Name: "spp, s", Usage: "samples per pixel (default 20)"},
		cli.IntFlag{Name: "camera-bounces, c", Usage: "maximum camera path bounces (default 10)"},
		cli.IntFlag{Name: "light-bounces, l", Usage: "maximum light path bounces (default 10)"},
		cli.IntFlag{Name: "max-path, p", Usage: "maximum length of a connected path (default 8)"},
		cli.IntFlag{Name: "cores, t", Usage: "render threads (default: NumCPU)"},
		cli.IntFlag{Name: "attenuation, a", Usage: "light distance attenuation: 0 none, 1 linear, 2 quadratic (default 1)"},
		cli.Float64Flag{Name: "light-scale", Usage: "light intensity multiplier (default 100)"},
		cli.Float64Flag{Name: "light-min-distance", Usage: "distance below which lights are not attenuated (default 0.01)"},
		cli.Float64Flag{Name: "cut", Usage: "light path intensity cutoff (default 0.002)"},
		cli.Uint64Flag{Name: "seed", Usage: "base random seed"},
		cli.Float64Flag{Name: "gamma, g", Usage: "gamma correction exponent (default 0.5)"},
		cli.StringFlag{Name: "rotation", Usage: `scene rotation "z,y,x" in degrees`},
		cli.StringFlag{Name: "translation", Usage: `scene translation "x,y,z"`},
		cli.StringFlag{Name: "hdr", Usage: "equirectangular .hdr background, used when lights are off"},
		cli.Float64Flag{Name: "hdr-scale", Usage: "HDR background scale (default pi)"},
		cli.StringFlag{Name: "camera", Usage: "camera properties JSON file"},
		cli.StringFlag{Name: "ior-dir", Usage: "directory of IOR files (default: scene directory)"},
		cli.StringSliceFlag{Name: "textures", Usage: "extra directory searched for textures by name", Value: &cli.StringSlice{}},
		cli.BoolFlag{Name: "center", Usage: "point the camera at the scene centre"},
		cli.BoolFlag{Name: "denoise", Usage: "also write a median-denoised <output>_denoised image"},
		cli.BoolFlag{Name: "lights, L", Usage: "use the lights of the scene description"},
		cli.StringFlag{Name: "material-priority", Usage: "om or pbr: which block wins when a material has both (default om)"},
		cli.BoolFlag{Name: "light-box", Usage: "render 8 validation views from the bounding box corners"},
		cli.StringFlag{Name: "false-color", Usage: "false-color subject: pid, gid, mid, rmp, mmp, mn or in"},
		cli.IntFlag{Name: "supersample", Usage: "render k times larger and downscale (8-bit formats only)"},
		cli.BoolFlag{Name: "write, w", Usage: "also write the log to <output>.log"},
		cli.BoolFlag{Name: "v", Usage: "enable verbose logging"},
		cli.BoolFlag{Name: "vv", Usage: "enable even more verbose logging"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) {
	if ctx.Bool("v") {
		log.SetLevel(log.Info)
	}
	if ctx.Bool("vv") {
		log.SetLevel(log.Debug)
	}
}

func run(ctx *cli.Context) error {
	setupLogging(ctx)

	var cfg config.Config
	if path := ctx.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}
	flags, err := readFlags(ctx)
	if err != nil {
		return err
	}
	cfg.Resolve(flags)

	if ctx.Bool("write") {
		f, err := os.Create(cfg.Output + ".log")
		if err != nil {
			return err
		}
		defer f.Close()
		log.SetSink(io.MultiWriter(os.Stdout, f))
	}

	if cfg.Scene == "" {
		return errors.New("missing scene file argument")
	}
	if cfg.FalseColor != "" {
		cfg.Lights = false
		cfg.HDR = ""
		cfg.Denoise = false
	}
	priority, err := assets.ParsePriority(cfg.MaterialPriority)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := assets.Options{
		UseLights:   cfg.Lights,
		Priority:    priority,
		IORDir:      cfg.IORDir,
		TextureDirs: cfg.TextureDirs,
		HDRPath:     cfg.HDR,
		HDRScale:    cfg.HDRScale,
	}
	logger.Noticef("loading %s", cfg.Scene)
	asset, err := assets.Load(cfg.Scene, opts)
	if err != nil {
		return err
	}
	bounds := asset.Bounds()

	root := mathutil.Mat4Identity()
	if !cfg.LightBox {
		root = assets.SceneTransform(bounds.Center(), cfg.RotationVec(), cfg.TranslationVec().Neg())
	}

	sc := asset.Scene(root, opts)
	sc.SetFalseColor(material.Subject(cfg.FalseColor))
	notes, err := sc.Commit()
	for _, n := range notes {
		logger.Warning(n)
	}
	if err != nil {
		return err
	}
	logger.Noticef("scene: %d meshes, %d instances, %d materials, %d textures, %d lights",
		sc.MeshCount(), sc.InstanceCount(), sc.MaterialCount(), sc.TextureCount(), sc.LightCount())

	r, err := render.New(sc, cfg.Params())
	if err != nil {
		return err
	}

	bcfg := batch.Config{
		Renderer:    r,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Supersample: cfg.Supersample,
		Gamma:       cfg.Gamma,
		Denoise:     cfg.Denoise,
	}
	var vps []sensor.ViewPoint
	if cfg.LightBox {
		vps = assets.LightBoxViewPoints(sc.Bounds())
		bcfg.YFoV = sensor.DefaultYFoV
	} else {
		vp := sensor.DefaultViewPoint()
		if cam, yfov, ok := asset.Camera(); ok {
			vp = cam
			bcfg.YFoV = yfov
		}
		if cfg.Center {
			vp = assets.CenteredViewPoint(root, bounds.Center())
		}
		bcfg.CameraProps = cfg.Camera
		vps = []sensor.ViewPoint{vp}
	}

	start := time.Now()
	jobs := batch.NewJobs(cfg.Output, vps)
	results, err := batch.Run(sigCtx, bcfg, jobs)
	if len(jobs) > 1 {
		path := filepath.Join(filepath.Dir(cfg.Output), "manifest.json")
		if werr := batch.WriteManifest(path, results); werr != nil {
			logger.Errorf("manifest: %v", werr)
		}
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if !res.Success {
			failed++
		}
	}
	logger.Noticef("done in %.1fs", time.Since(start).Seconds())
	if failed > 0 {
		return fmt.Errorf("%d of %d renders failed", failed, len(results))
	}
	return nil
}

func readFlags(ctx *cli.Context) (config.Flags, error) {
	f := config.Flags{
		Scene:            ctx.String("input"),
		Output:           ctx.String("output"),
		HDR:              ctx.String("hdr"),
		Camera:           ctx.String("camera"),
		IORDir:           ctx.String("ior-dir"),
		TextureDirs:      ctx.StringSlice("textures"),
		Width:            ctx.Int("width"),
		Height:           ctx.Int("height"),
		Aspect:           ctx.Float64("aspect"),
		Supersample:      ctx.Int("supersample"),
		Gamma:            ctx.Float64("gamma"),
		Denoise:          ctx.Bool("denoise"),
		SamplesPerPixel:  ctx.Int("spp"),
		CameraBounces:    ctx.Int("camera-bounces"),
		LightBounces:     ctx.Int("light-bounces"),
		MaxPathLength:    ctx.Int("max-path"),
		Workers:          ctx.Int("cores"),
		LightScale:       ctx.Float64("light-scale"),
		LightMinDistance: ctx.Float64("light-min-distance"),
		Cut:              ctx.Float64("cut"),
		HDRScale:         ctx.Float64("hdr-scale"),
		Seed:             ctx.Uint64("seed"),
		Center:           ctx.Bool("center"),
		Lights:           ctx.Bool("lights"),
		MaterialPriority: ctx.String("material-priority"),
		LightBox:         ctx.Bool("light-box"),
		FalseColor:       ctx.String("false-color"),
	}
	if f.Scene == "" && ctx.NArg() > 0 {
		f.Scene = ctx.Args().First()
	}
	if ctx.IsSet("attenuation") {
		a := ctx.Int("attenuation")
		f.Attenuation = &a
	}
	for _, v := range []struct {
		name string
		dst  **[3]float64
	}{{"rotation", &f.Rotation}, {"translation", &f.Translation}} {
		if s := ctx.String(v.name); s != "" {
			vec, err := parseVec3(s)
			if err != nil {
				return f, fmt.Errorf("--%s: %w", v.name, err)
			}
			*v.dst = &vec
		}
	}
	return f, nil
}

// parseVec3 reads "a,b,c"; spaces and parentheses are ignored.
func parseVec3(s string) ([3]float64, error) {
	var v [3]float64
	s = strings.Trim(strings.TrimSpace(s), "()")
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("want 3 comma separated numbers, got %q", s)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}
