package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/commander-decks/internal/deckimport"
	"github.com/ramonehamilton/commander-decks/internal/storage"
	"github.com/ramonehamilton/commander-decks/internal/version"
)

func newLandsCmd(c *cli) *cobra.Command {
	var colors string
	var total int

	cmd := &cobra.Command{
		Use:     "lands",
		Short:   "Split a basic land count across a color identity",
		Example: "  commander-decks lands --colors WU --total 11",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if total < 0 {
				return fmt.Errorf("--total cannot be negative: %d", total)
			}
			printLands(cmd.OutOrStdout(), deckimport.DeriveLands(deckimport.ParseColors(colors), total))
			return nil
		},
	}

	cmd.Flags().StringVar(&colors, "colors", "", "color identity in WUBRG symbols; empty for colorless")
	cmd.Flags().IntVar(&total, "total", 0, "number of basic lands")
	_ = cmd.MarkFlagRequired("total")
	return cmd
}

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the card cache schema",
	}

	withManager := func(fn func(cmd *cobra.Command, mm *storage.MigrationManager) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			mm, err := storage.NewMigrationManager(c.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer func() { _ = mm.Close() }()
			return fn(cmd, mm)
		}
	}

	printVersion := func(cmd *cobra.Command, mm *storage.MigrationManager) error {
		v, dirty, err := mm.Version()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", v, dirty)
		return nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: withManager(func(cmd *cobra.Command, mm *storage.MigrationManager) error {
				if err := mm.Up(); err != nil {
					return err
				}
				return printVersion(cmd, mm)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: withManager(func(cmd *cobra.Command, mm *storage.MigrationManager) error {
				if err := mm.Down(); err != nil {
					return err
				}
				return printVersion(cmd, mm)
			}),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Mark the schema as VERSION without running migrations",
			Long:  "Clears a dirty schema after a failed migration. The database is not changed.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return withManager(func(cmd *cobra.Command, mm *storage.MigrationManager) error {
					if err := mm.Force(v); err != nil {
						return err
					}
					return printVersion(cmd, mm)
				})(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the schema version",
			Args:  cobra.NoArgs,
			RunE:  withManager(printVersion),
		},
	)
	return cmd
}

func newCacheCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune the local card cache",
	}

	withDB := func(fn func(cmd *cobra.Command, db *storage.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(c.cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			return fn(cmd, db)
		}
	}
	withStore := func(fn func(cmd *cobra.Command, store *storage.CardStore) error) func(*cobra.Command, []string) error {
		return withDB(func(cmd *cobra.Command, db *storage.DB) error {
			return fn(cmd, storage.NewCardStore(db))
		})
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete cached cards not refreshed recently",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, store *storage.CardStore) error {
			age := olderThan
			if age == 0 {
				age = c.cfg.Cache.TTLDuration()
			}
			n, err := store.DeleteStale(cmd.Context(), age)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d cached cards older than %s\n", n, age)
			return nil
		}),
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 0, "age threshold (default: cache.ttl)")

	var backupDir string
	backup := &cobra.Command{
		Use:   "backup",
		Short: "Write a verified snapshot of the card cache",
		Args:  cobra.NoArgs,
		RunE: withDB(func(cmd *cobra.Command, db *storage.DB) error {
			path, err := db.Snapshot(cmd.Context(), backupDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}),
	}
	backup.Flags().StringVar(&backupDir, "dir", "", "snapshot directory (default: backups/ next to the database)")

	backups := &cobra.Command{
		Use:   "backups",
		Short: "List card cache snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := backupDir
			if dir == "" {
				dir = storage.SnapshotDir(c.cfg.Database.Path)
			}
			snapshots, err := storage.ListSnapshots(dir)
			if err != nil {
				return err
			}
			for _, s := range snapshots {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\t%s\n", s.Path, s.Size, s.ModTime.Format(time.RFC3339))
			}
			return nil
		},
	}
	backups.Flags().StringVar(&backupDir, "dir", "", "snapshot directory (default: backups/ next to the database)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Print cache statistics",
			Args:  cobra.NoArgs,
			RunE: withStore(func(cmd *cobra.Command, store *storage.CardStore) error {
				n, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d cached cards\n", c.cfg.Database.Path, n)
				return nil
			}),
		},
		prune,
		backup,
		backups,
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetVersion())
		},
	}
}
