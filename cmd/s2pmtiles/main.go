// Command s2pmtiles inspects, builds, and serves PMTiles / S2-PMTiles
// archives.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	logger := log.New(os.Stdout, "", log.Ldate|log.Ltime|log.Lshortfile)

	if len(os.Args) < 2 {
		fmt.Println(`Usage: s2pmtiles [COMMAND] [ARGS]

Inspecting archives:
  s2pmtiles show INPUT.s2pmtiles
  s2pmtiles verify INPUT.s2pmtiles

Creating archives:
  s2pmtiles convert INPUT.mbtiles OUTPUT.s2pmtiles

Extracting a region:
  s2pmtiles extract -bbox=minlon,minlat,maxlon,maxlat INPUT.s2pmtiles OUTPUT.s2pmtiles

Clustering:
  s2pmtiles cluster INPUT.s2pmtiles OUTPUT.s2pmtiles

Serving over HTTP:
  s2pmtiles serve ARCHIVE_PATH_OR_URL`)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "show":
		showCmd := flag.NewFlagSet("show", flag.ExitOnError)
		showCmd.Parse(os.Args[2:])
		if err := Show(logger, showCmd.Arg(0)); err != nil {
			logger.Fatalf("show failed: %v", err)
		}
	case "verify":
		verifyCmd := flag.NewFlagSet("verify", flag.ExitOnError)
		verifyCmd.Parse(os.Args[2:])
		if err := Verify(logger, verifyCmd.Arg(0)); err != nil {
			logger.Fatalf("verify failed: %v", err)
		}
	case "convert":
		convertCmd := flag.NewFlagSet("convert", flag.ExitOnError)
		convertCmd.Parse(os.Args[2:])
		if err := Convert(logger, convertCmd.Arg(0), convertCmd.Arg(1)); err != nil {
			logger.Fatalf("convert failed: %v", err)
		}
	case "extract":
		extractCmd := flag.NewFlagSet("extract", flag.ExitOnError)
		bbox := extractCmd.String("bbox", "-180,-85,180,85", "minlon,minlat,maxlon,maxlat")
		extractCmd.Parse(os.Args[2:])
		if err := Extract(logger, extractCmd.Arg(0), extractCmd.Arg(1), *bbox); err != nil {
			logger.Fatalf("extract failed: %v", err)
		}
	case "cluster":
		clusterCmd := flag.NewFlagSet("cluster", flag.ExitOnError)
		clusterCmd.Parse(os.Args[2:])
		if err := Cluster(logger, clusterCmd.Arg(0), clusterCmd.Arg(1)); err != nil {
			logger.Fatalf("cluster failed: %v", err)
		}
	case "serve":
		serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
		port := serveCmd.String("p", "8080", "port to serve on")
		cors := serveCmd.String("cors", "", "CORS allowed origin value")
		cacheSize := serveCmd.Int("cache", 64, "directory cache size, in directories")
		serveCmd.Parse(os.Args[2:])
		path := serveCmd.Arg(0)
		if path == "" {
			logger.Println("USAGE: serve [-p PORT] [-cors VALUE] ARCHIVE_PATH_OR_URL")
			os.Exit(1)
		}

		server, err := NewServer(path, logger, *cacheSize, *cors)
		if err != nil {
			logger.Fatalf("failed to start server: %v", err)
		}

		logger.Printf("serving %s on HTTP port :%s with Access-Control-Allow-Origin: %s", path, *port, *cors)
		srv := &http.Server{
			Addr:         ":" + *port,
			Handler:      server,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		logger.Fatal(srv.ListenAndServe())
	default:
		logger.Println("unrecognized command.")
		os.Exit(1)
	}
}
