// Command pigeonholectl administers the local SQLite model registry: it
// registers new model versions, moves them between stages, and lists what
// the serving binary would see.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ferndale/pigeonhole/internal/registry"
	"github.com/ferndale/pigeonhole/internal/registry/sqlite"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "register":
		err = runRegister(ctx, os.Args[2:])
	case "transition":
		err = runTransition(ctx, os.Args[2:])
	case "versions":
		err = runVersions(ctx, os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: pigeonholectl <command> [flags]

commands:
  register    add a new version of a registered model
  transition  move a version to a different stage
  versions    list versions of a model

Run "pigeonholectl <command> -h" for command flags.
`)
}

// defaultDBPath matches the serving binary's default so both tools point at
// the same registry out of the box.
func defaultDBPath() string {
	if v := os.Getenv("PIGEONHOLE_SQLITE_PATH"); v != "" {
		return v
	}
	return "models/registry.db"
}

func runRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	db := fs.String("db", defaultDBPath(), "path to the registry database")
	name := fs.String("name", "", "registered model name (required)")
	source := fs.String("source", "", "artifact URI of the new version (required)")
	stage := fs.String("stage", "", "stage to transition the new version to (optional)")
	fs.Parse(args)

	if *name == "" || *source == "" {
		return errors.New("register: -name and -source are required")
	}

	store, err := sqlite.Open(ctx, *db)
	if err != nil {
		return err
	}
	defer store.Close()

	v, err := store.Register(ctx, *name, *source)
	if err != nil {
		return err
	}
	fmt.Printf("registered %s version %d\n", v.Name, v.Version)

	if *stage != "" {
		st, err := registry.ParseStage(*stage)
		if err != nil {
			return err
		}
		if err := store.Transition(ctx, v.Name, v.Version, st, false); err != nil {
			return err
		}
		fmt.Printf("transitioned %s version %d to %s\n", v.Name, v.Version, st)
	}
	return nil
}

func runTransition(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transition", flag.ExitOnError)
	db := fs.String("db", defaultDBPath(), "path to the registry database")
	name := fs.String("name", "", "registered model name (required)")
	version := fs.Int("version", 0, "version number (required)")
	stage := fs.String("stage", "", "target stage: Production, Staging, None, or Archived (required)")
	archive := fs.Bool("archive-existing", false, "archive other versions already in the target stage")
	fs.Parse(args)

	if *name == "" || *version < 1 || *stage == "" {
		return errors.New("transition: -name, -version, and -stage are required")
	}
	st, err := registry.ParseStage(*stage)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(ctx, *db)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Transition(ctx, *name, *version, st, *archive); err != nil {
		return err
	}
	fmt.Printf("transitioned %s version %d to %s\n", *name, *version, st)
	return nil
}

func runVersions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("versions", flag.ExitOnError)
	db := fs.String("db", defaultDBPath(), "path to the registry database")
	name := fs.String("name", "", "registered model name (required)")
	stage := fs.String("stage", "", "filter by stage (optional)")
	fs.Parse(args)

	if *name == "" {
		return errors.New("versions: -name is required")
	}

	store, err := sqlite.Open(ctx, *db)
	if err != nil {
		return err
	}
	defer store.Close()

	var versions []registry.Version
	if *stage == "" {
		versions, err = store.List(ctx, *name)
	} else {
		var st registry.Stage
		if st, err = registry.ParseStage(*stage); err != nil {
			return err
		}
		versions, err = store.GetVersions(ctx, *name, st)
	}
	if err != nil {
		return err
	}

	if len(versions) == 0 {
		fmt.Printf("no versions of %s\n", *name)
		return nil
	}
	for _, v := range versions {
		fmt.Printf("%d\t%s\t%s\t%s\n", v.Version, v.Stage, v.CreatedAt.Format(time.RFC3339), v.Source)
	}
	return nil
}
