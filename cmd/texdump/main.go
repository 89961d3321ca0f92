package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bdpt-renderer/internal/assets"
	"bdpt-renderer/internal/imageio"
	"bdpt-renderer/internal/log"

	"github.com/urfave/cli"
)

var logger = log.New("texdump")

func main() {
	app := cli.NewApp()
	app.Name = "texdump"
	app.Usage = "write the decoded textures of a scene description as PNG files"
	app.ArgsUsage = "scene.json"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "out, o", Value: "textures", Usage: "output directory"},
		cli.StringSliceFlag{Name: "textures", Usage: "extra directory searched for textures by name", Value: &cli.StringSlice{}},
	}
	app.Action = dump

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func dump(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}
	asset, err := assets.Load(ctx.Args().First(), assets.Options{TextureDirs: ctx.StringSlice("textures")})
	if err != nil {
		return err
	}
	out := ctx.String("out")
	if err := os.MkdirAll(out, 0755); err != nil {
		return err
	}

	failed := 0
	for i, bmp := range asset.Textures {
		uri := asset.Doc.Textures[i].URI
		if bmp == nil {
			logger.Errorf("texture %d %s: not loaded", i, uri)
			failed++
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(uri), filepath.Ext(uri))
		dst := filepath.Join(out, fmt.Sprintf("%03d_%s.png", i, stem))
		if err := imageio.SaveImage(dst, bmp.Image()); err != nil {
			logger.Errorf("texture %d: %v", i, err)
			failed++
			continue
		}
		logger.Noticef("%s -> %s (%dx%d)", uri, dst, bmp.Width, bmp.Height)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d textures failed", failed, len(asset.Textures))
	}
	return nil
}
