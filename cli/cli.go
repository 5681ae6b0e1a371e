package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"galleria/access"
	"galleria/classify"
	"galleria/config"
	"galleria/server"
)

func Run(cfg *config.Config) error {
	if len(os.Args) == 1 {
		return runServe(cfg)
	}

	cmd := os.Args[1]

	switch cmd {
	case "serve":
		return runServe(cfg)

	case "tree":
		return runTree(cfg, os.Args[2:])

	case "-h", "--help", "help":
		printGlobalHelp()
		return nil

	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printGlobalHelp() {
	fmt.Printf(`Usage: %s <command> [options]

Commands:
  serve       Start the gallery server (default)
  tree        Print the album tree a viewer would see

Use "%s <command> --help" for command-specific options.
`, os.Args[0], os.Args[0])
}

func runServe(cfg *config.Config) error {
	return server.Server(cfg)
}

// runTree builds the tree once and dumps it as JSON, filtered to the
// roles given on the command line. Useful to verify rules and markers
// without starting the server.
func runTree(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tree", flag.ContinueOnError)

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s tree [options]\n\n", os.Args[0])
		fmt.Fprintln(fs.Output(), "Options:")
		fs.PrintDefaults()
	}

	roleList := fs.String("roles", "", "comma separated viewer roles, e.g. family,custid:42 (empty means guest)")
	album := fs.String("album", "", "album path to print instead of the whole tree")

	if err := fs.Parse(args); err != nil {
		return err
	}

	viewer := access.Guest()
	if *roleList != "" {
		var roles []classify.Role
		for _, r := range strings.Split(*roleList, ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, classify.ParseRole(r))
			}
		}
		viewer = access.NewViewer(roles...)
	}

	repo := server.NewRepository(cfg)
	tree, err := repo.GetAlbum(context.Background(), *album, viewer)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(tree)
}
