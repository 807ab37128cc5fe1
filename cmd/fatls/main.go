package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/fennelos/storage/aferofs"
	"github.com/fennelos/storage/fat32"
	"github.com/fennelos/storage/mbr"
)

func main() {
	app := &cli.App{
		Name:  "fatls",
		Usage: "inspect and list FAT32 images",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "partition",
				Usage: "open MBR partition `N` instead of the whole image",
				Value: -1,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log driver diagnostics",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "print the parsed volume configuration",
				ArgsUsage: "IMAGE",
				Action:    runInfo,
			},
			{
				Name:      "ls",
				Usage:     "walk the whole directory tree",
				ArgsUsage: "IMAGE",
				Action:    runList,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openVolume(c *cli.Context) (io.ReadSeeker, func(), error) {
	if c.Args().Len() < 1 {
		return nil, nil, cli.Exit("missing image path", 1)
	}

	file, err := os.Open(c.Args().Get(0))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { file.Close() }

	partition := c.Int("partition")
	if partition < 0 {
		return file, cleanup, nil
	}

	table, err := mbr.Read(file)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	stream, err := table.Stream(file, partition)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return stream, cleanup, nil
}

func driverLogger(c *cli.Context) (*zap.SugaredLogger, error) {
	if !c.Bool("verbose") {
		return zap.NewNop().Sugar(), nil
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

func runInfo(c *cli.Context) error {
	stream, cleanup, err := openVolume(c)
	if err != nil {
		return err
	}
	defer cleanup()

	config, err := fat32.ParseConfig(stream)
	if err != nil {
		return err
	}

	fmt.Printf("bytes per sector:    %d\n", config.BytesPerSector)
	fmt.Printf("sectors per cluster: %d\n", config.SectorsPerCluster)
	fmt.Printf("reserved sectors:    %d\n", config.ReservedSectors)
	fmt.Printf("total sectors:       %d\n", config.TotalSectors)
	fmt.Printf("sectors per FAT:     %d\n", config.SectorsPerFAT)
	fmt.Printf("root cluster:        %d\n", config.RootCluster)
	fmt.Printf("FSInfo sector:       %d\n", config.FSInfoSector)
	fmt.Printf("backup boot sector:  %d\n", config.BackupBootSector)
	fmt.Printf("chain end marker:    %#08x\n", config.EndMarker)
	if config.HasFSInfo {
		fmt.Printf("free clusters:       %d\n", config.FreeClusters)
		fmt.Printf("next free cluster:   %d\n", config.NextFreeCluster)
	} else {
		fmt.Println("FSInfo:              absent")
	}

	return nil
}

func runList(c *cli.Context) error {
	stream, cleanup, err := openVolume(c)
	if err != nil {
		return err
	}
	defer cleanup()

	logger, err := driverLogger(c)
	if err != nil {
		return err
	}

	volume, err := fat32.New(stream, fat32.WithLogger(logger))
	if err != nil {
		return err
	}
	defer volume.Destroy()

	return afero.Walk(aferofs.New(volume), "", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == "" {
			return nil
		}

		kind := "file"
		if info.IsDir() {
			kind = "dir"
		}
		fmt.Printf("%-4s %10d  /%s\n", kind, info.Size(), path)

		return nil
	})
}
