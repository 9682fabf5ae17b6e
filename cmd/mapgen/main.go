// Command mapgen generates room templates, prints them and optionally stores
// them in a JSON store or a remote backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"golang.org/x/term"

	"deepmine/backend"
	"deepmine/devtools"
	"deepmine/models"
	"deepmine/persistence"
	"deepmine/services"
)

func main() {
	var (
		formFlag  string
		count     int
		seed      int64
		dbFile    string
		remoteURL string
		quiet     bool
	)
	flag.StringVar(&formFlag, "form", "", "exit form to generate (e.g. NESW, ns); empty generates every form")
	flag.IntVar(&count, "count", 1, "templates per exit form")
	flag.Int64Var(&seed, "seed", 0, "random seed; 0 uses the clock")
	flag.StringVar(&dbFile, "db", "", "JSON store file to write templates to")
	flag.StringVar(&remoteURL, "remote", "", "backend URL to post templates to")
	flag.BoolVar(&quiet, "quiet", false, "do not print the templates")
	flag.Parse()

	if dbFile != "" && remoteURL != "" {
		log.Fatal("mapgen: -db and -remote are mutually exclusive")
	}

	forms := models.AllExitForms
	if formFlag != "" {
		form, err := models.ParseExitForm(formFlag)
		if err != nil {
			log.Fatalf("mapgen: %v", err)
		}
		forms = []models.ExitForm{form}
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen := services.NewTemplateGenerator(count, rand.New(rand.NewSource(seed)))

	var store persistence.Storage
	switch {
	case dbFile != "":
		s, err := persistence.NewJSONStore(dbFile)
		if err != nil {
			log.Fatalf("mapgen: %v", err)
		}
		store = s
	case remoteURL != "":
		store = backend.NewClient(remoteURL, nil)
	}
	if store != nil {
		defer store.Close()
	}

	dumper := devtools.Dumper{Color: term.IsTerminal(int(os.Stdout.Fd()))}
	ctx := context.Background()
	stored := 0

	for _, form := range forms {
		pool, err := gen.Pool(form)
		if err != nil {
			log.Fatalf("mapgen: %v", err)
		}
		for _, b := range pool {
			if store != nil {
				if err := store.SaveBaseMap(ctx, b); err != nil {
					log.Fatalf("mapgen: storing %s: %v", b.ID, err)
				}
				stored++
			}
			if !quiet {
				fmt.Println(dumper.BaseMap(b))
			}
		}
	}

	if store != nil {
		log.Printf("Stored %d templates", stored)
	}
}
