package commands

import (
	"context"
	"fmt"
	"strings"

	"feedbackboard/internal/board"
	"feedbackboard/internal/models"
	contextutils "feedbackboard/internal/utils"

	"github.com/spf13/cobra"
)

// listCmd returns the list command
func listCmd(opts *rootOptions) *cobra.Command {
	var criteria models.FilterCriteria
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List feedback, newest first",
		Long: `List feedback, newest first.

Filters and search are applied by the server; paging happens locally over the
fetched list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := opts.sess
			s.controller.Preset(criteria)
			state, err := s.controller.Dispatch(cmd.Context(), board.LoadRequested{})
			if err != nil {
				return err
			}
			if page > 1 {
				if state, err = s.controller.Dispatch(cmd.Context(), board.PageRequested{Page: page}); err != nil {
					return err
				}
			}
			renderList(s.out, state, s.controller.Nav(), s.width)
			return nil
		},
	}

	cmd.Flags().StringVar(&criteria.Type, "type", "", "only this feedback type (bug, feature, praise, suggestion, question, other)")
	cmd.Flags().StringVar(&criteria.Status, "status", "", "only this status (pending, processing, resolved, closed)")
	cmd.Flags().StringVar(&criteria.Search, "search", "", "case-insensitive text in title or content")
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	return cmd
}

// showCmd returns the show command
func showCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one feedback item in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s := opts.sess
			state, err := s.controller.Dispatch(cmd.Context(), board.DetailRequested{ID: id})
			if err != nil {
				return err
			}
			renderDetail(s.out, board.NewDetailView(*state.Detail, s.userID, s.cfg.Client.Role))
			return nil
		},
	}
}

// createCmd returns the create command
func createCmd(opts *rootOptions) *cobra.Command {
	var draft models.Draft
	var feedbackType string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Submit new feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft.Type = models.FeedbackType(feedbackType)
			if _, err := opts.sess.controller.Dispatch(cmd.Context(), board.CreateRequested{Draft: draft}); err != nil {
				return err
			}
			fmt.Fprintln(opts.sess.out, "反馈提交成功")
			return nil
		},
	}

	cmd.Flags().StringVarP(&feedbackType, "type", "t", string(models.TypeOther), "feedback type")
	cmd.Flags().StringVar(&draft.Title, "title", "", "title (required, at most 100 characters)")
	cmd.Flags().StringVar(&draft.Content, "content", "", "content (required, at most 2000 characters)")
	return cmd
}

// likeCmd returns the like command
func likeCmd(opts *rootOptions) *cobra.Command {
	return writeCmd(opts, "like ID", "Like feedback, or take a like back", 1, "操作成功",
		func(id int64, _ []string) board.Intent { return board.LikeRequested{ID: id} })
}

// respondCmd returns the respond command
func respondCmd(opts *rootOptions) *cobra.Command {
	return writeCmd(opts, "respond ID TEXT...", "Reply to feedback (teachers and admins)", 2, "回复成功",
		func(id int64, rest []string) board.Intent {
			return board.RespondRequested{ID: id, Text: strings.Join(rest, " ")}
		})
}

// statusCmd returns the status command
func statusCmd(opts *rootOptions) *cobra.Command {
	return writeCmd(opts, "status ID STATUS", "Change feedback status (teachers and admins)", 2, "状态更新成功",
		func(id int64, rest []string) board.Intent {
			return board.StatusRequested{ID: id, Status: models.FeedbackStatus(strings.ToLower(rest[0]))}
		})
}

// deleteCmd returns the delete command
func deleteCmd(opts *rootOptions) *cobra.Command {
	return writeCmd(opts, "delete ID", "Delete feedback (author, teachers and admins)", 1, "反馈删除成功",
		func(id int64, _ []string) board.Intent { return board.DeleteRequested{ID: id} })
}

// writeCmd builds a command whose first argument is a feedback ID and which
// dispatches one write intent
func writeCmd(opts *rootOptions, use, short string, minArgs int, done string, intent func(id int64, rest []string) board.Intent) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(minArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := dispatchWrite(cmd.Context(), opts.sess, intent(id, args[1:])); err != nil {
				return err
			}
			fmt.Fprintln(opts.sess.out, done)
			return nil
		},
	}
}

// dispatchWrite sends a write intent; a failed follow-up reload is only logged
func dispatchWrite(ctx context.Context, s *session, intent board.Intent) error {
	state, err := s.controller.Dispatch(ctx, intent)
	if err != nil {
		return err
	}
	if state.Phase == board.PhaseFailed && state.LastError != nil {
		s.logger.Warn(ctx, "Write succeeded but the list could not be refreshed", map[string]interface{}{
			"error": contextutils.UserMessage(state.LastError),
		})
	}
	return nil
}

// statsCmd returns the stats command
func statsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show feedback counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := opts.sess.client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			renderStats(opts.sess.out, *stats)
			return nil
		},
	}
}
