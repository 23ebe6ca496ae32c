package main

import (
	"fmt"
	"os"
	"strings"

	"cpindex/internal/app"
	"cpindex/internal/indexer"

	"github.com/spf13/cobra"
)

// adminActor resolves the current actor and requires admin rights before
// any work is done.
func adminActor(cmd *cobra.Command, a *app.CPIndexApp) (indexer.Actor, error) {
	actor, err := currentActor(cmd, a)
	if err != nil {
		return indexer.Actor{}, err
	}
	if !actor.Admin {
		return indexer.Actor{}, fmt.Errorf("%w: %s is not an administrator", indexer.ErrForbidden, actor.Email)
	}
	return actor, nil
}

// admin command
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative operations",
}

var adminBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up every record to the vault, or to a CSV file with --file",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		return withApp(cmd, "AdminBackup", func(a *app.CPIndexApp) error {
			actor, err := adminActor(cmd, a)
			if err != nil {
				return err
			}

			if file != "" {
				n, err := a.BackupToFile(cmd.Context(), actor, file)
				if err != nil {
					return fmt.Errorf("backup failed: %w", err)
				}
				fmt.Printf("Backed up %d record(s) to %s\n", n, file)
				return nil
			}

			key, err := a.Service().BackupToVault(cmd.Context(), actor)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			fmt.Printf("Stored backup %s\n", key)
			return nil
		})
	},
}

var adminBackupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List backups stored in the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "AdminListBackups", func(a *app.CPIndexApp) error {
			if _, err := adminActor(cmd, a); err != nil {
				return err
			}
			keys, err := a.Service().ListBackups()
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				fmt.Println("No backups stored.")
				return nil
			}
			for _, k := range keys {
				fmt.Println(k)
			}
			return nil
		})
	},
}

var adminRestoreCmd = &cobra.Command{
	Use:   "restore [KEY]",
	Short: "Replace every record with a vault backup, or a CSV file with --file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		yes, _ := cmd.Flags().GetBool("yes")
		if (file == "") == (len(args) == 0) {
			return fmt.Errorf("give either a backup KEY or --file")
		}

		return withApp(cmd, "AdminRestore", func(a *app.CPIndexApp) error {
			actor, err := adminActor(cmd, a)
			if err != nil {
				return err
			}
			if !yes && !confirm(os.Stdin, "Restore replaces every record. Continue?") {
				fmt.Println("Cancelled.")
				return nil
			}

			var n int
			if file != "" {
				n, err = a.RestoreFromFile(cmd.Context(), actor, file)
			} else {
				var passphrase string
				if indexer.IsEncryptedBackup(args[0]) {
					if passphrase, err = readSecret("Backup key passphrase: "); err != nil {
						return err
					}
				}
				n, err = a.RestoreFromVault(cmd.Context(), actor, args[0], passphrase)
			}
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			fmt.Printf("Restored %d record(s)\n", n)
			return nil
		})
	},
}

var adminImportCmd = &cobra.Command{
	Use:   "import TYPE FILE",
	Short: "Import a CSV or XLSX file into one book",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, _ := cmd.Flags().GetString("book")

		return withApp(cmd, "AdminImport", func(a *app.CPIndexApp) error {
			actor, err := adminActor(cmd, a)
			if err != nil {
				return err
			}
			res, err := a.ImportFile(cmd.Context(), actor, args[0], book, args[1])
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			if len(res.Dropped) > 0 {
				fmt.Fprintf(os.Stderr, "warning: ignored columns: %s\n", strings.Join(res.Dropped, ", "))
			}
			fmt.Printf("Imported %d record(s) into %s\n", res.Imported, book)
			return nil
		})
	},
}

var adminRenameBookCmd = &cobra.Command{
	Use:   "rename-book FROM TO",
	Short: "Rename a book on every record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "AdminRenameBook", func(a *app.CPIndexApp) error {
			actor, err := adminActor(cmd, a)
			if err != nil {
				return err
			}
			n, err := a.Service().RenameBook(cmd.Context(), actor, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Renamed %q to %q on %d record(s)\n", args[0], args[1], n)
			return nil
		})
	},
}

var adminDeleteBookCmd = &cobra.Command{
	Use:   "delete-book BOOK",
	Short: "Delete every record of a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "AdminDeleteBook", func(a *app.CPIndexApp) error {
			actor, err := adminActor(cmd, a)
			if err != nil {
				return err
			}
			plan, err := a.Service().PlanDeleteBook(cmd.Context(), actor, args[0])
			if err != nil {
				return err
			}
			return runPlan(cmd, a, actor, plan)
		})
	},
}

func init() {
	adminBackupCmd.Flags().String("file", "", "Write the CSV backup to this file instead of the vault")
	adminRestoreCmd.Flags().String("file", "", "Restore from this CSV file instead of the vault")
	adminRestoreCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	adminImportCmd.Flags().String("book", "", "Book the imported records belong to")
	adminImportCmd.MarkFlagRequired("book")
	adminDeleteBookCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	adminCmd.AddCommand(adminBackupCmd)
	adminCmd.AddCommand(adminBackupsCmd)
	adminCmd.AddCommand(adminRestoreCmd)
	adminCmd.AddCommand(adminImportCmd)
	adminCmd.AddCommand(adminRenameBookCmd)
	adminCmd.AddCommand(adminDeleteBookCmd)

	rootCmd.AddCommand(adminCmd)
}
