// Command editor is a small command-line front end over the ebml
// package: inspect a Matroska file's tree and space map, or rewrite it
// in place with a normalized SeekHead and no overlaps/gaps.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/luispater/ebmledit"
)

var (
	verbose bool
	runID   = uuid.New().String()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "editor",
		Short:         "inspect and repair Matroska/EBML containers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := logrus.StandardLogger()
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			} else {
				logger.SetLevel(logrus.WarnLevel)
			}
			ebml.SetLogger(logger.WithField("run", runID))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log read/repair decisions as they happen")
	root.AddCommand(newInspectCmd(), newNormalizeCmd(), newSaveCmd())
	return root
}

func newInspectCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "print the element tree and space map of a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ebml.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if full {
				err = f.ReadAll()
			} else {
				err = f.ReadSummary()
			}
			if err != nil {
				return errors.Wrap(err, "reading container")
			}

			segments := f.Segments()
			fmt.Printf("%d segment(s)\n", len(segments))
			for i, seg := range segments {
				fmt.Printf("\n--- segment %d ---\n", i)
				seg.PrintChildren(os.Stdout, 0)
				fmt.Println("space map:")
				seg.PrintSpace(os.Stdout)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "fully parse every element instead of a lazy summary")
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	var summary bool
	cmd := &cobra.Command{
		Use:   "normalize <file>",
		Short: "rebuild each Segment's SeekHead and repair overlaps/gaps without writing the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ebml.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if err := f.ReadSummary(); err != nil {
				return errors.Wrap(err, "reading container")
			}
			for i, seg := range f.Segments() {
				if err := seg.Normalize(summary); err != nil {
					return errors.Wrapf(err, "normalizing segment %d", i)
				}
			}
			fmt.Println("normalize dry run succeeded; rerun with `save` to write it")
			return nil
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", true, "freeze Cues as an immovable region while normalizing")
	return cmd
}

func newSaveCmd() *cobra.Command {
	var summary bool
	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "normalize every Segment and write the result back in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ebml.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if err := f.ReadSummary(); err != nil {
				return errors.Wrap(err, "reading container")
			}
			if err := f.SaveChanges(summary); err != nil {
				return errors.Wrap(err, "saving")
			}
			fmt.Println("saved")
			return nil
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", true, "freeze Cues as an immovable region while normalizing")
	return cmd
}
