package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/setu007/play-scraper-render/internal/mirror"
)

func main() {
	var (
		addr     = flag.String("addr", ":9000", "listen address")
		dataPath = flag.String("data", "data/catalog.json", "catalog JSON file")
		initData = flag.Bool("init", false, "write a sample catalog to -data if it does not exist")
	)
	flag.Parse()

	if *initData {
		if _, err := os.Stat(*dataPath); errors.Is(err, os.ErrNotExist) {
			if err := mirror.Write(*dataPath, mirror.Sample()); err != nil {
				log.Fatalf("write sample catalog: %v", err)
			}
			log.Printf("[mirror] wrote sample catalog to %s", *dataPath)
		}
	}

	if _, err := mirror.Load(*dataPath); err != nil {
		log.Fatalf("catalog: %v", err)
	}

	router := gin.Default()
	mirror.NewHandler(*dataPath).RegisterRoutes(router.Group("/api"))

	log.Printf("[mirror] serving %s on %s", *dataPath, *addr)
	log.Fatal(router.Run(*addr))
}
