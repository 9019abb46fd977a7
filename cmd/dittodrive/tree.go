package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/marmos91/dittodrive/pkg/config"
	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/spf13/cobra"
)

func newFolderCmd() *cobra.Command {
	folderCmd := &cobra.Command{
		Use:   "folder",
		Short: "Manage folders",
	}

	var parent string
	createCmd := &cobra.Command{
		Use:   "create <drive:name> <title>",
		Short: "Create a folder (a drive root without --parent)",
		Args:  cobra.ExactArgs(2),
		RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *config.Runtime, args []string) error {
			ref, err := metadata.ParseReference(args[0])
			if err != nil {
				return err
			}
			parentRef, err := metadata.ParseReference(parent)
			if err != nil {
				return err
			}

			folder, err := rt.FileSystem.CreateFolder(ctx, ref, args[1], parentRef)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created folder %s (%s)\n", folder.Reference, folder.Name)
			return nil
		}),
	}
	createCmd.Flags().StringVarP(&parent, "parent", "p", "", "parent folder (drive:name)")
	folderCmd.AddCommand(createCmd)

	return folderCmd
}

func newFileCmd() *cobra.Command {
	fileCmd := &cobra.Command{
		Use:   "file",
		Short: "Manage files",
	}

	var (
		parents []string
		title   string
	)
	putCmd := &cobra.Command{
		Use:   "put <drive:name> <local-file>",
		Short: "Store a local file under one or more parent folders",
		Args:  cobra.ExactArgs(2),
		RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *config.Runtime, args []string) error {
			ref, err := metadata.ParseReference(args[0])
			if err != nil {
				return err
			}

			parentRefs := make([]metadata.Reference, 0, len(parents))
			for _, p := range parents {
				parentRef, err := metadata.ParseReference(p)
				if err != nil {
					return err
				}
				parentRefs = append(parentRefs, parentRef)
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			name := title
			if name == "" {
				name = filepath.Base(args[1])
			}

			file, err := rt.FileSystem.CreateFile(ctx, ref, name, parentRefs, f)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (%s, %d bytes)\n", file.Reference, file.Name, file.Size)
			return nil
		}),
	}
	putCmd.Flags().StringArrayVarP(&parents, "parent", "p", nil, "parent folder (drive:name), repeatable")
	putCmd.Flags().StringVar(&title, "name", "", "display name (default: the local file name)")
	_ = putCmd.MarkFlagRequired("parent")
	fileCmd.AddCommand(putCmd)

	return fileCmd
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <drive | drive:folder>",
		Short: "List the roots of a drive or the children of a folder",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *config.Runtime, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			ref, err := metadata.ParseReference(args[0])
			if err != nil {
				// A bare drive name lists its roots
				roots, err := rt.FileSystem.ListRoots(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(w, "KIND\tREFERENCE\tNAME")
				for _, root := range roots {
					_, _ = fmt.Fprintf(w, "folder\t%s\t%s\n", root.Reference, root.Name)
				}
				return nil
			}

			folder, err := rt.FileSystem.GetFolder(ctx, ref)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(w, "KIND\tREFERENCE\tNAME\tSIZE")
			for _, child := range folder.ChildFolders {
				sub, err := rt.FileSystem.GetFolder(ctx, child)
				if err != nil {
					continue
				}
				_, _ = fmt.Fprintf(w, "folder\t%s\t%s\t-\n", sub.Reference, sub.Name)
			}
			for _, child := range folder.ChildFiles {
				file, err := rt.FileSystem.GetFile(ctx, child)
				if err != nil {
					continue
				}
				_, _ = fmt.Fprintf(w, "file\t%s\t%s\t%d\n", file.Reference, file.Name, file.Size)
			}
			return nil
		}),
	}
}

func newAccessCmd() *cobra.Command {
	accessCmd := &cobra.Command{
		Use:   "access",
		Short: "Manage access rules",
	}

	setCmd := &cobra.Command{
		Use:   "set <drive:name> <username|*> <rights>",
		Short: "Set the rights of a user on an entity",
		Long: `Set the rights of a user on an entity.

Rights are a comma-separated list of view, edit, delete, or one of all and
none. The username * sets the rule applied to users without their own rule.`,
		Args: cobra.ExactArgs(3),
		RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *config.Runtime, args []string) error {
			ref, err := metadata.ParseReference(args[0])
			if err != nil {
				return err
			}
			rights, err := metadata.ParseRights(args[2])
			if err != nil {
				return err
			}

			if err := rt.FileSystem.SetAccess(ctx, ref, args[1], rights); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: %s\n", args[1], ref, rights)
			return nil
		}),
	}
	accessCmd.AddCommand(setCmd)

	return accessCmd
}
