// Command observer is the GUI client of C11: it connects to a master's
// observer port and drives an SDL2 window.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tienet-go/tienet/observerclient"
)

func main() {
	compress := flag.Bool("compress", true, "expect zlib-compressed frames (must match the master's setting)")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: observer [-compress=bool] <host> <port>")
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%s", args[0], args[1])
	if err := observerclient.Run(observerclient.Config{MasterAddr: addr, Compress: *compress}); err != nil {
		log.Fatalf("observer: %v", err)
	}
}
