package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/kenala/internal/client/images"
	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/client/watch"
)

func newJournalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "journal",
		Aliases: []string{"j"},
		Short:   "Read and write journal entries",
	}
	cmd.AddCommand(
		newJournalListCommand(),
		newJournalShowCommand(),
		newJournalCreateCommand(),
		newJournalUpdateCommand(),
		newJournalDeleteCommand(),
	)
	return cmd
}

func newJournalListCommand() *cobra.Command {
	var (
		output  string
		watchDB bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cached journal entries, newest first",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ *cobra.Command, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			return a.ListJournals(ctx, output, watchDB)
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "table, json or yaml")
	cmd.Flags().BoolVarP(&watchDB, "watch", "w", false, "keep printing the list whenever it changes")
	return cmd
}

// ListJournals prints the cached list once, or every time it changes when
// follow is set. Changes made by other processes on a SQLite store are
// picked up through a file watch.
func (a *App) ListJournals(ctx context.Context, format string, follow bool) error {
	uid, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if follow && a.cfg.DatabaseDriver == "sqlite" {
		trigger := watch.NewFileTrigger(a.cfg.DatabaseDSN, a.store.Hub(), a.log)
		go func() {
			if err := trigger.Run(ctx); err != nil {
				a.log.Warn(ctx, "database file watch stopped", "error", err)
			}
		}()
	}

	list, stop := a.journals.Observe(ctx, uid)
	defer stop()

	first := true
	for snapshot := range list {
		if !first {
			fmt.Fprintln(a.out, "---")
		}
		if err := printJournals(a.out, format, snapshot); err != nil {
			return err
		}
		if !follow {
			return nil
		}
		first = false
	}
	if first && ctx.Err() == nil {
		return errors.New("could not read the local journal cache")
	}
	return nil
}

func newJournalShowCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *App, _ *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			j, err := a.journals.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printJournal(a.out, output, *j)
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "table, json or yaml")
	return cmd
}

// journalFlags are the editable fields shared by create and update.
type journalFlags struct {
	title         string
	story         string
	image         string
	imageURL      string
	lat, lng      float64
	clearImage    bool
	clearLocation bool
}

func (f *journalFlags) register(fs *pflag.FlagSet, update bool) {
	fs.StringVarP(&f.title, "title", "t", "", "entry title")
	fs.StringVarP(&f.story, "story", "s", "", "entry text")
	fs.StringVar(&f.image, "image", "", "local photo to upload to image storage")
	fs.StringVar(&f.imageURL, "image-url", "", "URL of an already hosted photo")
	fs.Float64Var(&f.lat, "lat", 0, "latitude of the place")
	fs.Float64Var(&f.lng, "lng", 0, "longitude of the place")
	if update {
		fs.BoolVar(&f.clearImage, "clear-image", false, "remove the photo")
		fs.BoolVar(&f.clearLocation, "clear-location", false, "remove the location")
	}
}

// applyJournalFlags overlays the flags that were set on f. A local photo is
// uploaded first so the entry stores its URL. On create a failed upload
// leaves the entry without a photo so the text is not lost offline.
func (a *App) applyJournalFlags(ctx context.Context, fs *pflag.FlagSet, jf *journalFlags, f models.JournalFields, create bool) (models.JournalFields, error) {
	if fs.Changed("title") {
		f.Title = jf.title
	}
	if fs.Changed("story") {
		f.Story = jf.story
	}

	if fs.Changed("lat") != fs.Changed("lng") {
		return f, errors.New("--lat and --lng must be given together")
	}
	if fs.Changed("lat") {
		if jf.lat < -90 || jf.lat > 90 || jf.lng < -180 || jf.lng > 180 {
			return f, fmt.Errorf("location %v,%v is out of range", jf.lat, jf.lng)
		}
		f.Location = &models.GeoPoint{Latitude: jf.lat, Longitude: jf.lng}
	} else if jf.clearLocation {
		f.Location = nil
	}

	switch {
	case jf.image != "" && jf.imageURL != "":
		return f, errors.New("--image and --image-url are mutually exclusive")
	case jf.image != "":
		if a.uploader == nil {
			return f, images.ErrNotConfigured
		}
		url, err := a.uploader.Upload(ctx, jf.image)
		switch {
		case err == nil:
			f.ImageURL = url
		case create && errors.Is(err, images.ErrUpload):
			a.log.Warn(ctx, "creating journal without its photo", "image", jf.image, "error", err)
			fmt.Fprintf(a.out, "Could not upload %s: %v\nThe entry is saved without a photo; attach it later with 'kenala journal update <id> --image'.\n", jf.image, err)
		default:
			return f, err
		}
	case fs.Changed("image-url"):
		f.ImageURL = jf.imageURL
	case jf.clearImage:
		f.ImageURL = ""
	}
	return f, nil
}

func newJournalCreateCommand() *cobra.Command {
	var jf journalFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write a new journal entry",
		Long: "Write a new journal entry. When the server cannot be reached the entry is kept\n" +
			"on this device and sent by the next 'kenala sync'.",
		Args: cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
			uid, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			f, err := a.applyJournalFlags(ctx, cmd.Flags(), &jf, models.JournalFields{}, true)
			if err != nil {
				return err
			}
			if f.Title == "" {
				if f.Title, err = a.ask.Line("Title"); err != nil {
					return err
				}
			}
			if f.Story == "" && !cmd.Flags().Changed("story") {
				if f.Story, err = a.ask.Text("Story"); err != nil {
					return err
				}
			}
			if f.Title == "" {
				return errors.New("a journal entry needs a title")
			}

			j, err := a.journals.Create(ctx, uid, f)
			if err != nil {
				return err
			}
			if j.Synced {
				fmt.Fprintf(a.out, "Created journal %s\n", j.ID)
			} else {
				fmt.Fprintf(a.out, "Saved journal %s on this device; it will be sent on the next sync\n", j.ID)
			}
			return nil
		}),
	}
	jf.register(cmd.Flags(), false)
	return cmd
}

func newJournalUpdateCommand() *cobra.Command {
	var jf journalFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *App, cmd *cobra.Command, args []string) error {
			current, err := a.journals.Get(ctx, args[0])
			if err != nil {
				return err
			}
			f, err := a.applyJournalFlags(ctx, cmd.Flags(), &jf, current.Fields(), false)
			if err != nil {
				return err
			}
			if f.Title == "" {
				return errors.New("a journal entry needs a title")
			}

			j, err := a.journals.Update(ctx, args[0], f)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated journal %s\n", j.ID)
			return nil
		}),
	}
	jf.register(cmd.Flags(), true)
	return cmd
}

func newJournalDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a journal entry",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *App, _ *cobra.Command, args []string) error {
			if err := a.journals.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted journal %s\n", args[0])
			return nil
		}),
	}
}
