// Command slave is the distributed rendering worker's entry point: it
// connects to a master, renders tiles until disconnected, and retries
// with a fixed backoff.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/tienet-go/tienet/worker"
)

// registerFrequency controls how long this worker waits before
// retrying a failed connection.
const registerFrequency = 500 * time.Millisecond

func main() {
	masterAddr := flag.String("master", "", "master host:port to connect to")
	flag.Parse()

	if *masterAddr == "" {
		log.Fatalln("slave: -master host:port is required")
	}

	for {
		if err := worker.Run(*masterAddr); err != nil {
			log.Printf("slave: %v", err)
		}
		time.Sleep(registerFrequency)
	}
}
