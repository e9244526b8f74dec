// Command master is the distributed renderer's coordinator: it loads
// a scene, opens the slave and observer listeners, and runs the frame
// dispatcher until shut down.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tienet-go/tienet/master"
	"github.com/tienet-go/tienet/shared/scene"
	"github.com/tienet-go/tienet/shared/scripting/lua"
	"github.com/tienet-go/tienet/shared/scripting/noop"
	"github.com/tienet-go/tienet/shared/telemetry"
)

const version = "tienet-master 1.0"

func main() {
	port := flag.Int("port", 1980, "slave registration port")
	obsPort := flag.Int("obs_port", 1981, "observer listen port")
	compHost := flag.String("comp_host", "", "optional telemetry component-server host")
	compPort := flag.Int("comp_port", 1982, "telemetry component-server port")
	exec := flag.String("exec", "", "Lua script to evaluate once at startup, via the same OP_MESG bridge observers use")
	tabletop := flag.Bool("tabletop", false, "use the tabletop (wrap-around elevation) camera profile instead of interactive clamping")
	compress := flag.Bool("compress", true, "zlib-compress frames sent to observers")
	list := flag.Bool("list", false, "list supported render modes and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}
	if *list {
		fmt.Println("render modes: normal, phong, path, plane, flat")
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: master [flags] <scene.obj>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	profile := scene.ProfileInteractive
	if *tabletop {
		profile = scene.ProfileTabletop
	}

	sc, err := loadScene(args[0])
	if err != nil {
		log.Fatalf("master: load scene: %v", err)
	}

	tele, err := telemetry.Dial(*compHost, *compPort)
	if err != nil {
		log.Fatalf("master: telemetry: %v", err)
	}

	cfg := master.Config{
		SlavePort:    *port,
		ObserverPort: *obsPort,
		CompHost:     *compHost,
		CompPort:     *compPort,
		Profile:      profile,
		Compress:     *compress,
	}

	ctx := master.NewContext(cfg, sc, tele, noop.Bridge{})
	bridge := lua.New(ctx.ScriptingController())
	ctx.SetScriptingBridge(bridge)

	if *exec != "" {
		out, err := bridge.Eval(*exec)
		if err != nil {
			log.Printf("master: -exec failed: %v", err)
		} else if out != "" {
			log.Printf("master: -exec: %s", out)
		}
	}

	if err := master.Run(ctx, cfg); err != nil {
		log.Fatalf("master: %v", err)
	}
}

// loadScene builds a scene.Scene from an OBJ file. A freshly built
// spatial cache is attached so slaves never have to rebuild the index
// themselves.
func loadScene(path string) (scene.Scene, error) {
	sc := scene.NewScene()
	meshes, props, meshMap, err := scene.LoadOBJ(path)
	if err != nil {
		return sc, err
	}
	sc.Meshes = meshes
	sc.Properties = props
	sc.MeshMap = meshMap
	sc.KDCache = scene.BuildKDCache(meshes)
	return sc, nil
}
