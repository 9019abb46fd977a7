package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/marmos91/dittodrive/pkg/config"
	"github.com/marmos91/dittodrive/pkg/filemanager"
	"github.com/marmos91/dittodrive/pkg/job"
	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/spf13/cobra"
)

// Overwrite policies of the move and copy commands.
const (
	overwriteAsk    = "ask"
	overwriteAlways = "always"
	overwriteNever  = "never"
)

// parsePathArg parses drive:folder, drive:folder/file and drive:/file.
func parsePathArg(arg string) (metadata.Path, error) {
	drive, rest, ok := strings.Cut(arg, ":")
	if !ok || drive == "" {
		return metadata.Path{}, fmt.Errorf("invalid path %q: expected drive:folder[/file]", arg)
	}

	folder, file, _ := strings.Cut(rest, "/")
	return filemanager.ParsePath(drive, []string{folder, file})
}

func parsePathArgs(args []string) ([]metadata.Path, error) {
	paths := make([]metadata.Path, 0, len(args))
	for _, arg := range args {
		path, err := parsePathArg(arg)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// parseAnswer maps a prompt reply to an overwrite answer. An empty reply
// takes the default answer.
func parseAnswer(reply string) (filemanager.OverwriteAnswer, bool) {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "":
		return filemanager.DefaultOverwriteAnswer(), true
	case "y", "yes":
		return filemanager.OverwriteAnswer{Overwrite: true, AskAgain: true}, true
	case "n", "no":
		return filemanager.OverwriteAnswer{Overwrite: false, AskAgain: true}, true
	case "a", "all":
		return filemanager.OverwriteAnswer{Overwrite: true, AskAgain: false}, true
	case "s", "skip", "none":
		return filemanager.OverwriteAnswer{Overwrite: false, AskAgain: false}, true
	default:
		return filemanager.OverwriteAnswer{}, false
	}
}

// prompter asks the overwrite questions of a job.
type prompter struct {
	policy string
	in     *bufio.Reader
	out    io.Writer
}

func (p *prompter) ask(question filemanager.OverwriteQuestion) filemanager.OverwriteAnswer {
	switch p.policy {
	case overwriteAlways:
		return filemanager.OverwriteAnswer{Overwrite: true, AskAgain: false}
	case overwriteNever:
		return filemanager.OverwriteAnswer{Overwrite: false, AskAgain: false}
	}

	for {
		_, _ = fmt.Fprintf(p.out, "Overwrite %s with %s? [Y]es/[n]o/[a]ll/[s]kip all: ",
			question.Destination, question.Source)

		reply, err := p.in.ReadString('\n')
		if err != nil && strings.TrimSpace(reply) == "" {
			// No more input: keep the existing files
			_, _ = fmt.Fprintln(p.out)
			return filemanager.OverwriteAnswer{Overwrite: false, AskAgain: false}
		}
		if answer, ok := parseAnswer(reply); ok {
			return answer
		}
		if err != nil {
			return filemanager.OverwriteAnswer{Overwrite: false, AskAgain: false}
		}
	}
}

// runJob submits a job, answers its questions and prints its outcome.
func runJob(ctx context.Context, cmd *cobra.Command, rt *config.Runtime, p *prompter, submit func() (string, error)) error {
	// Subscribe first: the job may ask before submit returns
	events, unsubscribe := rt.Manager.Events(16)
	defer unsubscribe()

	id, err := submit()
	if err != nil {
		return err
	}
	jobID := filemanager.JobIDPrefix + id
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Job %s submitted\n", id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return report(cmd, rt, id)
			}
			if e.JobID != jobID {
				continue
			}

			switch e.Type {
			case job.EventQuestion:
				status, err := rt.Manager.GetJobStatus(id)
				if err != nil {
					return err
				}
				question, ok := status.Question.(filemanager.OverwriteQuestion)
				if !ok {
					continue
				}
				if err := rt.Manager.Answer(id, p.ask(question)); err != nil {
					return fmt.Errorf("failed to answer: %w", err)
				}
			case job.EventFinished:
				return report(cmd, rt, id)
			}
		}
	}
}

// report prints the log and the outcome of a finished job.
func report(cmd *cobra.Command, rt *config.Runtime, id string) error {
	status, err := rt.Manager.GetJobStatus(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, entry := range status.Log {
		_, _ = fmt.Fprintf(out, "%-5s %s\n", entry.Level, entry.Message)
	}
	if output, ok := status.Attributes[filemanager.AttributeOutputFile]; ok {
		_, _ = fmt.Fprintf(out, "Archive: %v (%v bytes)\n", output, status.Attributes[filemanager.AttributeOutputFileSize])
	}
	if status.Error != "" {
		return fmt.Errorf("job %s failed: %s", id, status.Error)
	}

	_, _ = fmt.Fprintf(out, "Job %s %s in %s\n", id, strings.ToLower(status.State.String()), status.EndTime.Sub(status.StartTime))
	return nil
}

func newPrompter(cmd *cobra.Command, policy string) (*prompter, error) {
	switch policy {
	case overwriteAsk, overwriteAlways, overwriteNever:
	default:
		return nil, fmt.Errorf("invalid overwrite policy %q: expected ask, always or never", policy)
	}
	return &prompter{policy: policy, in: bufio.NewReader(cmd.InOrStdin()), out: cmd.ErrOrStderr()}, nil
}

func newMoveCmd() *cobra.Command {
	var (
		destination string
		overwrite   string
	)

	cmd := &cobra.Command{
		Use:   "move <path>... --to <destination>",
		Short: "Move or rename folders and files",
		Long: `Move or rename folders and files.

With a destination folder (drive:folder) every path moves into it; a folder
with the same name is merged. With a destination file (drive:folder/name) the
single path is renamed to that reference and moved under the folder.`,
		Args: cobra.MinimumNArgs(1),
		RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *config.Runtime, args []string) error {
			p, err := newPrompter(cmd, overwrite)
			if err != nil {
				return err
			}
			paths, err := parsePathArgs(args)
			if err != nil {
				return err
			}
			dest, err := parsePathArg(destination)
			if err != nil {
				return err
			}

			return runJob(ctx, cmd, rt, p, func() (string, error) {
				return rt.Manager.Move(ctx, issuer(), paths, dest)
			})
		}),
	}

	cmd.Flags().StringVarP(&destination, "to", "t", "", "destination path")
	cmd.Flags().StringVar(&overwrite, "overwrite", overwriteAsk, "overwrite policy: ask, always or never")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newCopyCmd() *cobra.Command {
	var (
		destination string
		overwrite   string
	)

	cmd := &cobra.Command{
		Use:   "copy <path>... --to <destination>",
		Short: "Copy folders and files into a folder",
		Long: `Copy folders and files into a destination folder.

A destination file (drive:folder/name) gives a single copied file a new name.`,
		Args: cobra.MinimumNArgs(1),
		RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *config.Runtime, args []string) error {
			p, err := newPrompter(cmd, overwrite)
			if err != nil {
				return err
			}
			paths, err := parsePathArgs(args)
			if err != nil {
				return err
			}
			dest, err := parsePathArg(destination)
			if err != nil {
				return err
			}

			return runJob(ctx, cmd, rt, p, func() (string, error) {
				return rt.Manager.Copy(ctx, issuer(), paths, dest)
			})
		}),
	}

	cmd.Flags().StringVarP(&destination, "to", "t", "", "destination path")
	cmd.Flags().StringVar(&overwrite, "overwrite", overwriteAsk, "overwrite policy: ask, always or never")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <path>...",
		Aliases: []string{"rm"},
		Short:   "Delete folders, or unlink files from a folder",
		Long: `Delete folders, or unlink files from a folder.

drive:folder/file removes the file from that folder only; the file is deleted
once no parent is left. drive:/file deletes the file from every folder.`,
		Args: cobra.MinimumNArgs(1),
		RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *config.Runtime, args []string) error {
			paths, err := parsePathArgs(args)
			if err != nil {
				return err
			}

			return runJob(ctx, cmd, rt, &prompter{policy: overwriteNever}, func() (string, error) {
				return rt.Manager.Delete(ctx, issuer(), paths)
			})
		}),
	}
}

func newPackCmd() *cobra.Command {
	var (
		document string
		fileName string
	)

	cmd := &cobra.Command{
		Use:   "pack <path>... --document <drive:name> --file <name.zip>",
		Short: "Write folders and files into a zip archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *config.Runtime, args []string) error {
			paths, err := parsePathArgs(args)
			if err != nil {
				return err
			}
			doc, err := metadata.ParseReference(document)
			if err != nil {
				return err
			}

			output := filemanager.PackOutput{Document: doc, FileName: fileName}
			return runJob(ctx, cmd, rt, &prompter{policy: overwriteNever}, func() (string, error) {
				return rt.Manager.Pack(ctx, issuer(), paths, output)
			})
		}),
	}

	cmd.Flags().StringVar(&document, "document", "", "document the archive is attached to (drive:name)")
	cmd.Flags().StringVar(&fileName, "file", "", "archive file name")
	_ = cmd.MarkFlagRequired("document")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
