// Package main (in describe-subfolder) runs the pipeline once for a local image file
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/UnendingLoop/percepto/internal/config"
	"github.com/UnendingLoop/percepto/internal/service"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	var (
		format  = flag.String("format", "", "image format (png, jpg, jpeg, bmp, webp); defaults to the file extension")
		outPath = flag.String("o", "", "write the spoken description to this WAV file")
		envFile = flag.String("env", "./.env", "optional .env file with settings")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-format png] [-o description.wav] <image>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	imagePath := flag.Arg(0)

	appConfig, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %s", err)
	}

	zlog.InitConsole()
	if err := zlog.SetLevel(appConfig.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.Build(ctx, appConfig, nil)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}

	declared := *format
	if declared == "" {
		declared = filepath.Ext(imagePath)
	}

	out := svc.Run(ctx, data, declared)
	if out.Failure != nil {
		fmt.Fprintf(os.Stderr, "%s failed (%s): %s\n", out.Failure.Stage, out.Failure.Kind, out.Failure.Reason)
		os.Exit(1)
	}

	fmt.Println(out.Description.Text)
	fmt.Fprintf(os.Stderr, "model: %s\n", out.Description.ModelID)

	switch {
	case *outPath == "":
	case out.Audio == nil:
		fmt.Fprintf(os.Stderr, "audio not written: %v\n", out.AudioErr)
	default:
		if err := os.WriteFile(*outPath, out.Audio.Data, 0o644); err != nil {
			log.Fatalf("Failed to write audio: %v", err)
		}
		fmt.Fprintf(os.Stderr, "audio (%s): %s\n", out.Audio.Engine, *outPath)
	}
}
