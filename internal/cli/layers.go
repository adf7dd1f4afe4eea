package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/cruciblehq/cruximg/internal/stage"
)

// Represents the 'cruximg layers' command.
type LayersCmd struct {
	ProjectFlags `embed:""`

	Archive string `short:"a" help:"Also write the staged context as a gzip-compressed tarball." type:"path" placeholder:"FILE"`
}

// Executes the layers command.
//
// Stages the planned layers and prints them in emission order.
func (c *LayersCmd) Run(ctx context.Context) error {
	p, err := c.stage()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKIND\tNAME\tCONTEXT\tDESTINATION")
	for i, l := range p.planned {
		rel, err := stage.StagedPath(i, l)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, l.Kind, l.LogicalName(), rel, l.Destination)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if c.Archive == "" {
		return nil
	}
	return writeArchive(c.Context, c.Archive)
}

func writeArchive(root, target string) error {
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := stage.Archive(root, f); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	slog.Info("context archive written", "path", target)
	return nil
}
