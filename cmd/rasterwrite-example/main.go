package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/openterra/go-rasterwrite"
)

const wgs84WKT = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`

func run() error {
	output := flag.String("output", os.Getenv("RASTERWRITE_OUTPUT"), "output GeoTIFF path")
	rows := flag.Int("rows", 256, "number of rows")
	cols := flag.Int("cols", 256, "number of columns")
	pixelSize := flag.Float64("pixel-size", 0.001, "pixel size in degrees")
	flag.Parse()

	if *output == "" {
		return errors.New("syntax: rasterwrite-example -output path [longitude latitude]")
	}

	originX, originY := 0.0, 0.0
	if flag.NArg() == 2 {
		var err error
		originX, err = strconv.ParseFloat(flag.Arg(0), 64)
		if err != nil {
			return err
		}
		originY, err = strconv.ParseFloat(flag.Arg(1), 64)
		if err != nil {
			return err
		}
	}

	grid, err := rasterwrite.NewGrid(*rows, *cols)
	if err != nil {
		return err
	}
	for r := range *rows {
		for c := range *cols {
			dr := float64(r - *rows/2)
			dc := float64(c - *cols/2)
			grid.Set(r, c, math.Sqrt(dr*dr+dc*dc))
		}
	}

	transform := rasterwrite.GeoTransform{originX, *pixelSize, 0, originY, 0, -*pixelSize}
	if err := rasterwrite.Write(*output, grid, transform, wgs84WKT, rasterwrite.WithNoData(-9999)); err != nil {
		return err
	}

	fmt.Printf("wrote %dx%d raster to %s\n", *cols, *rows, *output)

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
