package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/phanxgames/poser/internal/library"
	"github.com/phanxgames/poser/internal/ui"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the saved pose library",
}

var librarySaveCmd = &cobra.Command{
	Use:   "save NAME [POSE]",
	Short: "Save a pose code or JSON pose under NAME",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runLibrarySave,
}

var libraryGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Print a saved pose",
	Args:  cobra.ExactArgs(1),
	RunE:  runLibraryGet,
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved poses",
	Args:  cobra.NoArgs,
	RunE:  runLibraryList,
}

var libraryDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a saved pose",
	Args:  cobra.ExactArgs(1),
	RunE:  runLibraryDelete,
}

func init() {
	libraryCmd.PersistentFlags().String("library", "", "pose library database (default from config)")
	libraryGetCmd.Flags().Bool("table", false, "print joint values instead of the code")
	libraryCmd.AddCommand(librarySaveCmd, libraryGetCmd, libraryListCmd, libraryDeleteCmd)
	rootCmd.AddCommand(libraryCmd)
}

// openLibrary opens the configured library database.
func openLibrary(cmd *cobra.Command) (*library.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("library"); v != "" {
		cfg.LibraryPath = v
	}
	return library.Open(ctxOf(cmd), cfg.LibraryPath)
}

func runLibrarySave(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer lib.Close()

	in, err := readInput(cmd, args[1:])
	if err != nil {
		return err
	}
	pose, props, err := parsePose(in)
	if err != nil {
		return err
	}
	e, err := lib.Save(ctxOf(cmd), args[0], pose, props)
	if err != nil {
		return err
	}
	ui.New().Success("saved %s (%s)", e.Name, e.ID)
	return nil
}

func runLibraryGet(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer lib.Close()

	e, err := lib.Get(ctxOf(cmd), args[0])
	if err != nil {
		return err
	}
	p := ui.New()
	if asTable, _ := cmd.Flags().GetBool("table"); asTable {
		pose, _, err := e.Decode()
		if err != nil {
			return err
		}
		p.Title(e.Name)
		p.Pose(pose)
		return nil
	}
	p.Raw(e.Code)
	return nil
}

func runLibraryList(cmd *cobra.Command, _ []string) error {
	lib, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer lib.Close()

	entries, err := lib.List(ctxOf(cmd))
	if err != nil {
		return err
	}
	p := ui.New()
	if len(entries) == 0 {
		p.Info("library is empty")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Name, e.UpdatedAt.Local().Format(time.DateTime), fmt.Sprintf("%d bytes", len(e.Code))})
	}
	p.Table([]string{"name", "updated", "code"}, rows)
	return nil
}

func runLibraryDelete(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer lib.Close()

	if err := lib.Delete(ctxOf(cmd), args[0]); err != nil {
		return err
	}
	ui.New().Success("deleted %s", args[0])
	return nil
}

// ctxOf returns the command's context, or Background when run outside Execute.
func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
