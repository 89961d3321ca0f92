package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"bdpt-renderer/internal/light"
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/render"
	"bdpt-renderer/internal/sampler"
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	Scene       string   `json:"scene"`
	Output      string   `json:"output"`
	HDR         string   `json:"hdr"`
	Camera      string   `json:"camera"`
	IORDir      string   `json:"ior_dir"`
	TextureDirs []string `json:"texture_dirs"`

	// Image settings
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Aspect      float64 `json:"aspect"`
	Supersample int     `json:"supersample"`
	Gamma       float64 `json:"gamma"`
	Denoise     bool    `json:"denoise"`

	// Render settings
	SamplesPerPixel  int     `json:"spp"`
	CameraBounces    int     `json:"camera_bounces"`
	LightBounces     int     `json:"light_bounces"`
	MaxPathLength    int     `json:"max_path_length"`
	Workers          int     `json:"workers"`
	Attenuation      *int    `json:"attenuation"`
	LightScale       float64 `json:"light_scale"`
	LightMinDistance float64 `json:"light_min_distance"`
	Cut              float64 `json:"cut"`
	HDRScale         float64 `json:"hdr_scale"`
	Seed             uint64  `json:"seed"`

	// Scene setup
	Rotation         [3]float64 `json:"rotation"` // z, y, x in degrees
	Translation      [3]float64 `json:"translation"`
	Center           bool       `json:"center"`
	Lights           bool       `json:"lights"`
	MaterialPriority string     `json:"material_priority"`
	LightBox         bool       `json:"light_box"`
	FalseColor       string     `json:"false_color"`
}

// Defaults for settings that are neither in the file nor on the command line.
const (
	DefaultOutput           = "render_image.png"
	DefaultWidth            = 800
	DefaultAspect           = 4.0 / 3.0
	DefaultGamma            = 0.5
	DefaultMaterialPriority = "om"
)

// DefaultHDRScale is the original renderer's background scale.
const DefaultHDRScale = math.Pi

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	// Relative paths in the file are relative to the file.
	base := filepath.Dir(path)
	for _, p := range []*string{&cfg.Scene, &cfg.Output, &cfg.HDR, &cfg.Camera, &cfg.IORDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	for i, d := range cfg.TextureDirs {
		if !filepath.IsAbs(d) {
			cfg.TextureDirs[i] = filepath.Join(base, d)
		}
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
// Zero values mean "not given"; Attenuation and the vectors are pointers
// because zero is a meaningful value for them.
type Flags struct {
	Scene       string
	Output      string
	HDR         string
	Camera      string
	IORDir      string
	TextureDirs []string

	Width       int
	Height      int
	Aspect      float64
	Supersample int
	Gamma       float64
	Denoise     bool

	SamplesPerPixel  int
	CameraBounces    int
	LightBounces     int
	MaxPathLength    int
	Workers          int
	Attenuation      *int
	LightScale       float64
	LightMinDistance float64
	Cut              float64
	HDRScale         float64
	Seed             uint64

	Rotation         *[3]float64
	Translation      *[3]float64
	Center           bool
	Lights           bool
	MaterialPriority string
	LightBox         bool
	FalseColor       string
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	setString(&c.Scene, flags.Scene)
	setString(&c.Output, flags.Output)
	setString(&c.HDR, flags.HDR)
	setString(&c.Camera, flags.Camera)
	setString(&c.IORDir, flags.IORDir)
	if len(flags.TextureDirs) > 0 {
		c.TextureDirs = flags.TextureDirs
	}
	setInt(&c.Width, flags.Width)
	setInt(&c.Height, flags.Height)
	setFloat(&c.Aspect, flags.Aspect)
	setInt(&c.Supersample, flags.Supersample)
	setFloat(&c.Gamma, flags.Gamma)
	c.Denoise = c.Denoise || flags.Denoise

	setInt(&c.SamplesPerPixel, flags.SamplesPerPixel)
	setInt(&c.CameraBounces, flags.CameraBounces)
	setInt(&c.LightBounces, flags.LightBounces)
	setInt(&c.MaxPathLength, flags.MaxPathLength)
	setInt(&c.Workers, flags.Workers)
	if flags.Attenuation != nil {
		a := *flags.Attenuation
		c.Attenuation = &a
	}
	setFloat(&c.LightScale, flags.LightScale)
	setFloat(&c.LightMinDistance, flags.LightMinDistance)
	setFloat(&c.Cut, flags.Cut)
	setFloat(&c.HDRScale, flags.HDRScale)
	if flags.Seed != 0 {
		c.Seed = flags.Seed
	}

	if flags.Rotation != nil {
		c.Rotation = *flags.Rotation
	}
	if flags.Translation != nil {
		c.Translation = *flags.Translation
	}
	c.Center = c.Center || flags.Center
	c.Lights = c.Lights || flags.Lights
	setString(&c.MaterialPriority, flags.MaterialPriority)
	c.LightBox = c.LightBox || flags.LightBox
	setString(&c.FalseColor, flags.FalseColor)

	// Defaults
	def := render.DefaultParams()
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Aspect <= 0 {
		c.Aspect = DefaultAspect
	}
	if c.Height <= 0 {
		c.Height = max(1, int(float64(c.Width)/c.Aspect))
	}
	if c.Supersample <= 0 {
		c.Supersample = 1
	}
	if c.Gamma <= 0 {
		c.Gamma = DefaultGamma
	}
	if c.SamplesPerPixel <= 0 {
		c.SamplesPerPixel = def.SamplesPerPixel
	}
	if c.CameraBounces <= 0 {
		c.CameraBounces = def.CameraBounces
	}
	if c.LightBounces <= 0 {
		c.LightBounces = def.LightBounces
	}
	if c.MaxPathLength <= 0 {
		c.MaxPathLength = def.MaxPathLength
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Workers <= 0 {
		c.Workers = render.DefaultWorkers
	}
	if c.Attenuation == nil {
		a := int(def.Attenuation)
		c.Attenuation = &a
	}
	if c.LightScale <= 0 {
		c.LightScale = def.LightScale
	}
	if c.LightMinDistance <= 0 {
		c.LightMinDistance = def.LightMinDistance
	}
	if c.Cut <= 0 {
		c.Cut = def.Cut
	}
	if c.HDRScale <= 0 {
		c.HDRScale = DefaultHDRScale
	}
	if c.Seed == 0 {
		c.Seed = sampler.DefaultSeed
	}
	if c.MaterialPriority == "" {
		c.MaterialPriority = DefaultMaterialPriority
	}
}

// Params converts the resolved config into the render record. Supersampling
// scales nothing here; the caller sizes the sensor.
func (c *Config) Params() render.Params {
	p := render.DefaultParams()
	p.SamplesPerPixel = c.SamplesPerPixel
	p.CameraBounces = c.CameraBounces
	p.LightBounces = c.LightBounces
	p.MaxPathLength = c.MaxPathLength
	p.Workers = c.Workers
	if c.Attenuation != nil {
		p.Attenuation = light.Attenuation(*c.Attenuation)
	}
	p.LightScale = c.LightScale
	p.LightMinDistance = c.LightMinDistance
	p.Cut = c.Cut
	p.Seed = c.Seed
	if c.FalseColor != "" {
		p = p.ForFalseColor()
	}
	return p
}

// RenderSize is the sensor resolution including supersampling.
func (c *Config) RenderSize() (w, h int) {
	k := max(c.Supersample, 1)
	return c.Width * k, c.Height * k
}

// RotationVec returns the z, y, x rotation in degrees.
func (c *Config) RotationVec() mathutil.Vec3 { return mathutil.Vec3(c.Rotation) }

// TranslationVec returns the configured translation.
func (c *Config) TranslationVec() mathutil.Vec3 { return mathutil.Vec3(c.Translation) }

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}
