package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"feedengine/internal/bootstrap"
	"feedengine/internal/config"
	"feedengine/internal/models"
	"feedengine/internal/service"

	"github.com/spf13/cobra"
)

type cliState struct {
	viewer  uint
	kind    string
	scope   string
	limit   int
	runtime *bootstrap.Runtime
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	root := &cobra.Command{
		Use:           "feedctl",
		Short:         "Query timelines, profiles, comment trees and search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			rt, err := bootstrap.InitRuntime(cfg)
			if err != nil {
				return err
			}
			st.runtime = rt
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if st.runtime == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return st.runtime.Close(ctx)
		},
	}
	root.PersistentFlags().UintVar(&st.viewer, "viewer", 0, "viewing user id (0 is anonymous)")

	root.AddCommand(
		st.timelineCmd(),
		st.likesCmd(),
		st.linkedCmd(),
		st.commentCmd(),
		st.engagedCmd("likers", "List users who liked a post or comment"),
		st.engagedCmd("reposters", "List users who reposted a post or comment"),
		st.searchCmd(),
	)
	return root
}

func (st *cliState) engine() *service.Engine {
	return st.runtime.Engine
}

func (st *cliState) timelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline",
		Short: "Print the home timeline of --viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := st.engine().Timeline.Home(cmd.Context(), st.viewer)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
}

func (st *cliState) likesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "likes <user-id>",
		Short: "Print the content a user liked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			entries, err := st.engine().Profiles.Likes(cmd.Context(), id, st.viewer)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
}

func (st *cliState) linkedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linked <user-id>",
		Short: "Print content a user authored or reposted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var kind models.Kind
			if st.kind != "" {
				if kind, err = models.ParseKind(st.kind); err != nil {
					return err
				}
			}
			entries, err := st.engine().Profiles.LinkedContent(cmd.Context(), id, st.viewer, kind)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().StringVar(&st.kind, "kind", "", "posts or comments (default both)")
	return cmd
}

func (st *cliState) commentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <comment-id>",
		Short: "Print a comment with its parent and direct replies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			tree, err := st.engine().CommentTrees.GetTree(cmd.Context(), id, st.viewer)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tree)
		},
	}
}

func (st *cliState) engagedCmd(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <post|comment> <id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			ref := models.ContentRef{Kind: kind, ID: id}

			list := st.engine().Engagement.Likers
			if use == "reposters" {
				list = st.engine().Engagement.Reposters
			}
			users, err := list(cmd.Context(), ref, st.viewer)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), users)
		},
	}
}

func (st *cliState) searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search users, posts and comments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			ctx := cmd.Context()
			search := st.engine().Search

			var (
				out any
				err error
			)
			switch st.scope {
			case "top":
				out, err = search.Top(ctx, text, st.viewer)
			case "quick":
				out, err = search.Quick(ctx, text, st.viewer)
			case "users":
				out, err = search.Users(ctx, text, st.viewer, st.limit)
			case "posts":
				out, err = search.Posts(ctx, text, st.viewer, st.limit)
			case "comments":
				out, err = search.Comments(ctx, text, st.viewer, st.limit)
			default:
				return fmt.Errorf("unknown scope %q", st.scope)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&st.scope, "scope", "top", "top, quick, users, posts or comments")
	cmd.Flags().IntVar(&st.limit, "limit", 0, "maximum results for users/posts/comments (0 is unbounded)")
	return cmd
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
