package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/RybaPila-IT/File-System/pkg/image"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"
)

var formatFlag = &cli.StringFlag{Name: "format", Usage: "output format: text or yaml", Value: "text"}

func main() {
	app := cli.App{
		Name:        "fsimage",
		Description: "a command line interface for the in-process file system image engine",
		Commands: []*cli.Command{
			{
				Name:        "touch",
				Description: "create an empty regular file at <path>",
				ArgsUsage:   "<path>",
				Action:      withImage(true, actionTouch),
			},
			{
				Name:        "mkdir",
				Description: "create an empty directory at <path>",
				ArgsUsage:   "<path>",
				Action:      withImage(true, actionMkdir),
			},
			{
				Name:        "write",
				Description: "append data to the file at <path>",
				ArgsUsage:   "<path> <bytes...>",
				Action:      withImage(true, actionWrite),
			},
			{
				Name:        "cut",
				Description: "drop the trailing <n> bytes from the file at <path>",
				ArgsUsage:   "<path> <n>",
				Action:      withImage(true, actionCut),
			},
			{
				Name:        "erase",
				Description: "remove the entry at <path>",
				ArgsUsage:   "<path>",
				Action:      withImage(true, actionErase),
			},
			{
				Name:        "link",
				Description: "create a hard link at <dst> pointing to the file at <src>",
				ArgsUsage:   "<src> <dst>",
				Action:      withImage(true, actionLink),
			},
			{
				Name:        "cat",
				Description: "print a file's content, or a directory's entry names",
				ArgsUsage:   "<path>",
				Action:      withImage(false, actionCat),
			},
			{
				Name:        "info",
				Description: "print a report describing the entry at <path>",
				ArgsUsage:   "<path>",
				Flags:       []cli.Flag{formatFlag},
				Action:      withImage(false, actionInfo),
			},
			{
				Name:        "allocator-info",
				Description: "print a report of allocator usage",
				Flags:       []cli.Flag{formatFlag},
				Action:      withImage(false, actionAllocatorInfo),
			},
			{
				Name:        "get",
				Description: "write a file's raw content to <host-dest-path>",
				ArgsUsage:   "<path> <host-dest-path>",
				Action:      withImage(false, actionGet),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// withImage opens the image named by the configured path — or, if absent,
// synthesises a brand-new one with make_empty — runs f, and, if mutating is
// set, dumps the (possibly changed) image back to that path. Every
// invocation is tagged with a fresh correlation id purely for the log line;
// the id is never persisted anywhere in the image itself.
func withImage(mutating bool, f func(*image.FileSystem, *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		invocation := uuid.NewString()

		var fs *image.FileSystem
		raw, err := os.ReadFile(cfg.Path)
		switch {
		case os.IsNotExist(err):
			fs = image.MakeEmpty(cfg.InitSlots)
		case err != nil:
			return fmt.Errorf("reading image %s: %w", cfg.Path, err)
		default:
			fs, err = image.Load(raw)
			if err != nil {
				return fmt.Errorf("loading image %s: %w", cfg.Path, err)
			}
		}

		if err := f(fs, ctx); err != nil {
			log.Printf("invocation=%s command=%s error=%q", invocation, ctx.Command.Name, err)
			return err
		}

		if mutating {
			if err := os.WriteFile(cfg.Path, fs.Dump(), 0644); err != nil {
				return fmt.Errorf("writing image %s: %w", cfg.Path, err)
			}
		}
		log.Printf("invocation=%s command=%s ok", invocation, ctx.Command.Name)
		return nil
	}
}

// splitTarget splits a slash-separated argument into a parent path and a
// leaf name, the (parent_path, name) pair every facade operation expects.
func splitTarget(p string) ([]string, string) {
	segments := image.SplitPath(p)
	if len(segments) == 0 {
		return nil, ""
	}
	return segments[:len(segments)-1], segments[len(segments)-1]
}

func actionTouch(fs *image.FileSystem, ctx *cli.Context) error {
	parent, name := splitTarget(ctx.Args().First())
	return fs.Touch(parent, name)
}

func actionMkdir(fs *image.FileSystem, ctx *cli.Context) error {
	parent, name := splitTarget(ctx.Args().First())
	return fs.Mkdir(parent, name)
}

func actionWrite(fs *image.FileSystem, ctx *cli.Context) error {
	parent, name := splitTarget(ctx.Args().First())
	data := strings.Join(ctx.Args().Slice()[1:], " ")
	return fs.Write(parent, name, []byte(data))
}

func actionCut(fs *image.FileSystem, ctx *cli.Context) error {
	parent, name := splitTarget(ctx.Args().Get(0))
	n, err := strconv.ParseUint(ctx.Args().Get(1), 10, 32)
	if err != nil {
		return fmt.Errorf("parsing byte count %q: %w", ctx.Args().Get(1), err)
	}
	return fs.Cut(parent, name, uint32(n))
}

func actionErase(fs *image.FileSystem, ctx *cli.Context) error {
	parent, name := splitTarget(ctx.Args().First())
	return fs.Erase(parent, name)
}

func actionLink(fs *image.FileSystem, ctx *cli.Context) error {
	srcParent, srcName := splitTarget(ctx.Args().Get(0))
	dstParent, dstName := splitTarget(ctx.Args().Get(1))
	return fs.Link(srcParent, srcName, dstParent, dstName)
}

func actionCat(fs *image.FileSystem, ctx *cli.Context) error {
	parent, name := splitTarget(ctx.Args().First())
	out, err := fs.Cat(parent, name)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func actionInfo(fs *image.FileSystem, ctx *cli.Context) error {
	parent, name := splitTarget(ctx.Args().First())
	report, err := fs.Info(parent, name)
	if err != nil {
		return err
	}
	if ctx.String("format") == "yaml" {
		return printYAML(report)
	}
	fmt.Print(renderReportText(report))
	return nil
}

func actionAllocatorInfo(fs *image.FileSystem, ctx *cli.Context) error {
	report := fs.AllocatorInfo()
	if ctx.String("format") == "yaml" {
		return printYAML(report)
	}
	fmt.Print(renderAllocatorReportText(report))
	return nil
}

func actionGet(fs *image.FileSystem, ctx *cli.Context) error {
	parent, name := splitTarget(ctx.Args().Get(0))
	data, err := fs.Get(parent, name)
	if err != nil {
		return err
	}
	return os.WriteFile(ctx.Args().Get(1), data, 0644)
}

func printYAML(v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling report to YAML: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func renderReportText(r *image.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "path: %s\n", r.Path)
	fmt.Fprintf(&b, "is_dir: %t\n", r.IsDir)
	fmt.Fprintf(&b, "size_bytes: %d\n", r.SizeBytes)
	for _, c := range r.Children {
		fmt.Fprintf(&b, "  %s\tis_dir=%t\tsize_bytes=%d\n", c.Name, c.IsDir, c.SizeBytes)
	}
	return b.String()
}

func renderAllocatorReportText(r *image.AllocatorReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "inodes: %d/%d free\n", r.Inodes.Free, r.Inodes.Total)
	fmt.Fprintf(&b, "blocks: %d/%d free\n", r.Blocks.Free, r.Blocks.Total)
	return b.String()
}
