package main

import (
	"errors"
	"fmt"
	"os"

	"bdpt-renderer/internal/assets"
	"bdpt-renderer/internal/light"
	"bdpt-renderer/internal/log"
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/scene"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

var logger = log.New("inspect")

func main() {
	app := cli.NewApp()
	app.Name = "inspect"
	app.Usage = "summarise a scene description"
	app.ArgsUsage = "scene.json"
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "lights, L", Usage: "load the lights of the scene description"},
		cli.StringFlag{Name: "material-priority", Value: string(assets.PriorityOpen), Usage: "om or pbr"},
		cli.StringFlag{Name: "ior-dir", Usage: "directory of IOR files (default: scene directory)"},
	}
	app.Action = inspect

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func inspect(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}
	priority, err := assets.ParsePriority(ctx.String("material-priority"))
	if err != nil {
		return err
	}
	opts := assets.Options{
		UseLights: ctx.Bool("lights"),
		Priority:  priority,
		IORDir:    ctx.String("ior-dir"),
	}
	asset, err := assets.Load(ctx.Args().First(), opts)
	if err != nil {
		return err
	}
	sc := asset.Scene(mathutil.Mat4Identity(), opts)
	notes, err := sc.Commit()
	for _, n := range notes {
		logger.Warning(n)
	}
	if err != nil {
		return err
	}

	displayMeshes(sc)
	displayMaterials(sc)
	displayInstances(sc)
	if sc.LightCount() > 0 {
		displayLights(sc)
	}
	b := sc.Bounds()
	fmt.Printf("bounds: min %v max %v centre %v\n", b.Min, b.Max, b.Center())
	return nil
}

func newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	return table
}

func displayMeshes(sc *scene.Scene) {
	table := newTable("Mesh", "Vertices", "Faces", "Material", "UV channels")
	faces := 0
	for i := 0; i < sc.MeshCount(); i++ {
		m := sc.Mesh(i)
		if m == nil {
			table.Append([]string{fmt.Sprint(i), "-", "-", "-", "-"})
			continue
		}
		mat := fmt.Sprint(m.MaterialID)
		if m.MaterialID == sc.MaterialCount() {
			mat = "missing"
		}
		faces += m.FaceCount()
		table.Append([]string{
			fmt.Sprint(i),
			fmt.Sprint(m.VertexCount()),
			fmt.Sprint(m.FaceCount()),
			mat,
			fmt.Sprint(m.TexChannels()),
		})
	}
	table.SetFooter([]string{"", "", fmt.Sprint(faces), "", ""})
	table.Render()
}

func displayMaterials(sc *scene.Scene) {
	table := newTable("Material", "Kind", "Normal map UV", "Emission map UV")
	for i := 0; i < sc.MaterialCount(); i++ {
		m := sc.Material(i)
		if m == nil {
			table.Append([]string{fmt.Sprint(i), "undefined", "", ""})
			continue
		}
		table.Append([]string{
			fmt.Sprint(i),
			string(m.Kind()),
			fmt.Sprint(m.NormalTextureChannel()),
			fmt.Sprint(m.EmissivityTextureChannel()),
		})
	}
	table.Render()
}

func displayInstances(sc *scene.Scene) {
	table := newTable("Instance", "Mesh", "Translation", "Valid")
	for i := 0; i < sc.InstanceCount(); i++ {
		inst, ok := sc.Instance(i)
		if !ok {
			continue
		}
		table.Append([]string{
			fmt.Sprint(inst.ID),
			fmt.Sprint(inst.MeshID),
			fmt.Sprintf("%.3g", inst.Transform.Translation()),
			fmt.Sprint(inst.Valid),
		})
	}
	table.Render()
}

func displayLights(sc *scene.Scene) {
	table := newTable("Light", "Position", "Power", "Range")
	for i := 0; i < sc.LightCount(); i++ {
		l := sc.Light(i)
		pos := "-"
		if p, ok := l.(*light.Point); ok {
			pos = fmt.Sprintf("%.3g", p.Position)
		}
		rng := "unbounded"
		if d := l.AttenuationDistance(); d < mathutil.MaxFloat32 {
			rng = fmt.Sprintf("%g", d)
		}
		table.Append([]string{fmt.Sprint(i), pos, fmt.Sprintf("%.4g", l.Power()), rng})
	}
	table.Render()
}
