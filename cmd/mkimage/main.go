package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/fennelos/storage/mkfat"
)

func main() {
	app := &cli.App{
		Name:  "mkimage",
		Usage: "build a FAT32 disk image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "write the image to `FILE`",
				Required: true,
			},
			&cli.Int64Flag{
				Name:  "size",
				Usage: "image size in bytes",
				Value: mkfat.DefaultSize,
			},
			&cli.StringFlag{
				Name:  "label",
				Usage: "volume label",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "copy the tree rooted at `DIR` into the image",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	maker := mkfat.New(mkfat.Options{
		Size:        c.Int64("size"),
		VolumeLabel: c.String("label"),
	})

	if from := c.String("from"); from != "" {
		if err := importTree(maker, from); err != nil {
			return err
		}
	}

	out, err := os.Create(c.String("out"))
	if err != nil {
		return err
	}
	defer out.Close()

	return maker.Write(out)
}

// importTree adds every file and directory below root to the image, keeping
// the relative paths.
func importTree(maker *mkfat.Maker, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := "/" + filepath.ToSlash(rel)

		if info.IsDir() {
			return maker.AddDir(target)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		return maker.AddFile(target, data)
	})
}
