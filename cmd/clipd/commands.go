package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipd/clipd/internal/clipboard"
	"github.com/clipd/clipd/internal/daemon"
	"github.com/clipd/clipd/internal/store"
)

type listOptions struct {
	limit       int64
	offset      int64
	contentType string
	pinned      bool
	tag         string
	asJSON      bool
}

func newListCommand() *cobra.Command {
	opts := listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent clipboard entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.pinned = cmd.Flags().Changed("pinned")
			return runList(opts)
		},
	}

	cmd.Flags().Int64VarP(&opts.limit, "limit", "n", 10, "Maximum number of entries")
	cmd.Flags().Int64Var(&opts.offset, "offset", 0, "Number of entries to skip")
	cmd.Flags().StringVarP(&opts.contentType, "type", "t", "", "Filter by content type (text, image, fileref)")
	cmd.Flags().Bool("pinned", false, "Show only pinned entries")
	cmd.Flags().StringVar(&opts.tag, "tag", "", "Show only entries carrying a tag")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Emit JSON instead of formatted rows")

	return cmd
}

func runList(opts listOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	storage, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	filter := store.ClipFilter{Limit: opts.limit, Offset: opts.offset}
	if opts.contentType != "" {
		contentType, ok := store.ParseContentType(opts.contentType)
		if !ok {
			return fmt.Errorf("invalid content type %q", opts.contentType)
		}
		filter.ContentType = &contentType
	}
	if opts.pinned {
		pinned := true
		filter.Pinned = &pinned
	}
	if opts.tag != "" {
		filter.Tag = &opts.tag
	}

	clips, err := storage.List(context.Background(), filter)
	if err != nil {
		return err
	}

	if opts.asJSON {
		return printJSON(clips)
	}
	if len(clips) == 0 {
		fmt.Println("No entries.")
		return nil
	}
	for _, clip := range clips {
		printClipRow(clip)
	}
	return nil
}

func newSearchCommand() *cobra.Command {
	var limit int64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search text entries by substring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			storage, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			clips, err := storage.Search(context.Background(), args[0], limit)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(clips)
			}
			if len(clips) == 0 {
				fmt.Println("No matches.")
				return nil
			}
			for _, clip := range clips {
				printClipRow(clip)
			}
			return nil
		},
	}

	cmd.Flags().Int64VarP(&limit, "limit", "n", 10, "Maximum number of matches")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of formatted rows")

	return cmd
}

func newGetCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single entry in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseClipID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			storage, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			clip, err := storage.GetByID(context.Background(), id)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(clip)
			}
			printClipDetail(clip)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of formatted output")

	return cmd
}

func newCopyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "copy <id>",
		Short: "Copy an entry back to the system clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseClipID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			storage, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx := context.Background()
			clip, err := storage.GetByID(ctx, id)
			if err != nil {
				return err
			}

			sink := clipboard.NewSystemClipboard()
			switch clip.ContentType {
			case store.ContentTypeImage:
				if clip.ImagePath == nil {
					return fmt.Errorf("entry %d has no stored image file", id)
				}
				pixels, width, height, err := clipboard.NewPNGCodec().DecodeFile(*clip.ImagePath)
				if err != nil {
					return err
				}
				if err := sink.WriteImage(pixels, width, height); err != nil {
					return err
				}
			default:
				if clip.TextContent == nil {
					return fmt.Errorf("entry %d has no text content", id)
				}
				if err := sink.WriteText(*clip.TextContent); err != nil {
					return err
				}
			}

			if err := storage.Touch(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Copied entry %d to clipboard.\n", id)
			return nil
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseClipID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			storage, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			deleted, err := storage.Delete(context.Background(), id)
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Printf("No entry with id %d.\n", id)
				return nil
			}
			fmt.Printf("Deleted entry %d.\n", id)
			return nil
		},
	}
}

func newPinCommand() *cobra.Command {
	var unpin bool

	cmd := &cobra.Command{
		Use:   "pin <id>",
		Short: "Pin an entry so retention never prunes it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseClipID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			storage, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := storage.SetPinned(context.Background(), id, !unpin); err != nil {
				return err
			}
			if unpin {
				fmt.Printf("Unpinned entry %d.\n", id)
			} else {
				fmt.Printf("Pinned entry %d.\n", id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unpin, "unpin", false, "Remove the pin instead")

	return cmd
}

func newTagCommand() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "tag <id> <tag>",
		Short: "Attach a tag to an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseClipID(args[0])
			if err != nil {
				return err
			}
			tag := args[1]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			storage, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx := context.Background()
			if remove {
				if err := storage.RemoveTag(ctx, id, tag); err != nil {
					return err
				}
				fmt.Printf("Removed tag %q from entry %d.\n", tag, id)
				return nil
			}
			if err := storage.AddTag(ctx, id, tag); err != nil {
				return err
			}
			fmt.Printf("Tagged entry %d with %q.\n", id, tag)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the tag instead")

	return cmd
}

func newClearCommand() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Prune unpinned entries older than a number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			storage, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			cutoff := time.Now().AddDate(0, 0, -days)
			removed, err := storage.ClearOlderThan(context.Background(), cutoff)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d entries older than %d days.\n", removed, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Age threshold in days")

	return cmd
}

func newStatsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show storage statistics and daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			storage, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			stats, err := storage.Stats(context.Background())
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(stats)
			}

			printStats(stats)
			if pid, err := daemon.Status(cfg.PIDFile); err == nil && pid != nil {
				fmt.Printf("Daemon:      running (pid %d)\n", *pid)
			} else {
				fmt.Println("Daemon:      not running")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of formatted output")

	return cmd
}

func parseClipID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", raw)
	}
	return id, nil
}
